package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// NewClient builds the PostgREST-backed client used for realtime rows.
func NewClient(url, serviceKey string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return client, nil
}
