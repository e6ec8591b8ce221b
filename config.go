package main

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
	"github.com/redis/go-redis/v9"
)

type config struct {
	listenAddr         string
	debug              bool
	redisOptions       *redis.Options
	listCacheTTL       time.Duration
	bodyLimit          string
	legacyErrorMessage bool
}

func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		listenAddr:   ":8080",
		listCacheTTL: 30 * time.Second,
		bodyLimit:    "64K",
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.listenAddr = ":" + v
	}
	if v := getenv("DEBUG"); v != "" {
		dbg, err := strconv.ParseBool(v)
		if err != nil {
			return config{}, fmt.Errorf("invalid DEBUG: %w", err)
		}
		cfg.debug = dbg
	}
	if v := getenv("LEGACY_ERROR_MESSAGE"); v != "" {
		legacy, err := strconv.ParseBool(v)
		if err != nil {
			return config{}, fmt.Errorf("invalid LEGACY_ERROR_MESSAGE: %w", err)
		}
		cfg.legacyErrorMessage = legacy
	}
	if v := getenv("LIST_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, fmt.Errorf("invalid LIST_CACHE_TTL: %w", err)
		}
		if d <= 0 {
			return config{}, fmt.Errorf("invalid LIST_CACHE_TTL: must be greater than zero")
		}
		cfg.listCacheTTL = d
	}
	if v := getenv("BODY_LIMIT"); v != "" {
		if _, err := bytes.Parse(v); err != nil {
			return config{}, fmt.Errorf("invalid BODY_LIMIT: %w", err)
		}
		cfg.bodyLimit = v
	}
	if v := getenv("REDIS_CONNECTION_STRING"); v != "" {
		opts, err := parseRedisOptions(v)
		if err != nil {
			return config{}, fmt.Errorf("invalid REDIS_CONNECTION_STRING: %w", err)
		}
		cfg.redisOptions = opts
	}
	return cfg, nil
}

// parseRedisOptions accepts a redis:// or rediss:// URL, or a managed-cache
// connection string: "host[:port],key=value,...". Recognised keys are
// password, user, ssl, sslHost and defaultDatabase (alias db); other keys
// such as abortConnect are accepted and ignored.
func parseRedisOptions(conn string) (*redis.Options, error) {
	conn = strings.TrimSpace(conn)
	if strings.Contains(conn, "://") {
		opts, err := redis.ParseURL(conn)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		return opts, nil
	}

	segments := strings.Split(conn, ",")
	addr, err := redisAddr(segments[0])
	if err != nil {
		return nil, err
	}
	opts := &redis.Options{Addr: addr}

	var useTLS bool
	var serverName string
	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, value, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, fmt.Errorf("redis connection string: segment %q is not key=value", seg)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "password":
			opts.Password = value
		case "user", "username":
			opts.Username = value
		case "ssl":
			useTLS, err = strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("redis connection string: invalid ssl %q", value)
			}
		case "sslhost":
			serverName = value
		case "defaultdatabase", "db":
			db, err := strconv.Atoi(value)
			if err != nil || db < 0 {
				return nil, fmt.Errorf("redis connection string: invalid database %q", value)
			}
			opts.DB = db
		}
	}
	if useTLS {
		if serverName == "" {
			serverName, _, _ = net.SplitHostPort(addr)
		}
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: serverName}
	}
	return opts, nil
}

// redisAddr normalises the leading host[:port] segment, defaulting the port to 6379.
func redisAddr(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "=") {
		return "", fmt.Errorf("redis connection string: missing host")
	}
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		host, port = raw, "6379"
	}
	if host == "" {
		return "", fmt.Errorf("redis connection string: missing host in %q", raw)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("redis connection string: invalid port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}
