package main

import (
	"os"
	"strings"
	"sync"

	"melodex/internal/api"
	"melodex/internal/config"
)

type commandContext struct {
	configFlag *string
	serverFlag *string
	tokenFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, serverFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
		tokenFlag:  tokenFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds an API client for the configured daemon address, attaching a
// token when one is available.
func (c *commandContext) client() (*api.Client, error) {
	bind := ""
	if c.serverFlag != nil {
		bind = strings.TrimSpace(*c.serverFlag)
	}
	if bind == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		bind = cfg.Paths.APIBind
	}

	client := api.NewClient(bind)
	if token := c.token(); token != "" {
		client = client.WithToken(token)
	}
	return client, nil
}

func (c *commandContext) token() string {
	if c.tokenFlag != nil {
		if token := strings.TrimSpace(*c.tokenFlag); token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("MELODEX_TOKEN"))
}
