/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package app

import (
	"context"

	"github.com/josephgoksu/VeriWing/internal/backend"
	"github.com/josephgoksu/VeriWing/internal/config"
	"github.com/josephgoksu/VeriWing/internal/llm"
	"github.com/josephgoksu/VeriWing/types"
)

// LiveBackendFactory builds real chat-model backends from descriptors,
// resolving API keys from config and environment.
func LiveBackendFactory(cfg *types.AppConfig) BackendFactory {
	return func(ctx context.Context, desc backend.Descriptor) (backend.Backend, error) {
		provider, err := llm.ValidateProvider(desc.Provider)
		if err != nil {
			return nil, err
		}
		chat, err := llm.NewChatModel(ctx, llm.Config{
			Provider: provider,
			Model:    desc.Model,
			APIKey:   config.ResolveAPIKey(cfg, provider),
			BaseURL:  cfg.LLM.OllamaURL,
		})
		if err != nil {
			return nil, err
		}
		return backend.NewChatBackend(desc, chat, cfg.LLM.Debug)
	}
}
