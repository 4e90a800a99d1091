package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// withQueueStore opens the task queue directly; SQLite tolerates the running
// service holding the same file.
func (c *commandContext) withQueueStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) withDocStore(fn func(*docstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := docstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withStores opens the document store and the task queue together for commands
// that join source audios with their tasks.
func (c *commandContext) withStores(fn func(*config.Config, *docstore.Store, *queue.Store) error) error {
	return c.withDocStore(func(docs *docstore.Store) error {
		return c.withQueueStore(func(cfg *config.Config, tasks *queue.Store) error {
			return fn(cfg, docs, tasks)
		})
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
