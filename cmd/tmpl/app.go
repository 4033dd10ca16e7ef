package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aescanero/dago-templates/internal/access"
	"github.com/aescanero/dago-templates/internal/config"
	"github.com/aescanero/dago-templates/internal/logging"
	"github.com/aescanero/dago-templates/internal/namemap"
	"github.com/aescanero/dago-templates/internal/render"
	"github.com/aescanero/dago-templates/internal/resolve"
	"github.com/aescanero/dago-templates/internal/stringify"
	"github.com/aescanero/dago-templates/internal/template"
)

// app holds what every command needs, built once before the command runs
type app struct {
	root     string
	useRedis bool

	cfg         *config.Config
	logger      *zap.Logger
	redisClient *redis.Client
	engine      *template.Engine
	accessors   *access.Registry
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	syntax, err := template.NewSyntax(cfg.VarStart, cfg.VarEnd, cfg.TagStart, cfg.TagEnd)
	if err != nil {
		return fmt.Errorf("invalid syntax: %w", err)
	}

	resolver, err := a.resolver(ctx)
	if err != nil {
		return err
	}

	a.engine = template.NewEngine(
		template.WithSyntax(syntax),
		template.WithCacheSize(cfg.CacheSize),
		template.WithResolver(resolver),
		template.WithLogger(logger),
	)

	mapper, _ := namemap.ByName(cfg.NameMapper)
	a.accessors, err = access.Configure().
		SetDefaultNameMapper(mapper).
		NullIsUndefined(cfg.NullIsUndefined).
		UseCEL(cfg.CELPaths).
		Build()
	if err != nil {
		return fmt.Errorf("failed to configure accessors: %w", err)
	}
	return nil
}

func (a *app) resolver(ctx context.Context) (resolve.PathResolver, error) {
	if !a.useRedis {
		return resolve.NewFileResolver(a.root), nil
	}
	if !a.cfg.RedisEnabled() {
		return nil, fmt.Errorf("--redis requires TMPL_REDIS_ADDR")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a.redisClient = redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, a.cfg.RedisTimeout)
	defer cancel()
	if err := a.redisClient.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.logger.Info("connected to redis", zap.String("addr", a.cfg.RedisAddr))

	return resolve.NewRedisResolver(a.redisClient, a.cfg.RedisPrefix, a.cfg.RedisTimeout, a.logger), nil
}

func (a *app) close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("failed to close redis connection", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// renderOptions are the flags shared by render and watch
type renderOptions struct {
	data   string
	output string
	group  string
	strict bool
}

// render loads a template, inserts the data file and writes the result
func (a *app) render(path string, opts renderOptions, w io.Writer) error {
	tmpl, err := a.engine.FromFile(path)
	if err != nil {
		return err
	}

	s := render.NewSession(tmpl, render.WithAccessors(a.accessors))
	if opts.data != "" {
		data, err := loadData(opts.data)
		if err != nil {
			return err
		}
		if data != nil {
			if err := s.InsertWithGroup(data, stringify.VarGroup(opts.group)); err != nil {
				return fmt.Errorf("failed to populate %s: %w", path, err)
			}
		}
	}

	if opts.strict && !s.FullyPopulated() {
		unset := s.UnsetVariables()
		if len(unset) == 0 {
			return fmt.Errorf("template %s has nested templates that were never populated", path)
		}
		return fmt.Errorf("template %s is not fully populated, unset: %s", path, strings.Join(unset, ", "))
	}

	return s.Render(w)
}

// loadData reads a JSON or YAML document. "-" reads stdin.
func loadData(path string) (any, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data %s: %w", path, err)
	}
	return decodeData(raw)
}

func decodeData(raw []byte) (any, error) {
	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return data, nil
}

// writeOutput writes to the file named by output, or to def when it is empty
func writeOutput(output string, def io.Writer, fn func(io.Writer) error) error {
	if output == "" || output == "-" {
		return fn(def)
	}
	var sb strings.Builder
	if err := fn(&sb); err != nil {
		return err
	}
	if err := os.WriteFile(output, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}
