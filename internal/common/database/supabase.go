package database

import (
	"fmt"

	"property-chat/internal/common/config"

	"github.com/supabase-community/supabase-go"
)

// NewSupabase creates a Supabase client for the hosted store driver.
func NewSupabase(cfg config.SupabaseConfig) (*supabase.Client, error) {
	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return client, nil
}
