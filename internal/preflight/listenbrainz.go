package preflight

import (
	"context"
	"fmt"

	"playsync/internal/config"
	"playsync/internal/listenbrainz"
)

// CheckListenBrainzFromConfig builds a client from cfg and checks the
// configured user.
func CheckListenBrainzFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "ListenBrainz"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	client, err := listenbrainz.New(cfg.ListenBrainz.BaseURL,
		listenbrainz.WithToken(cfg.ListenBrainz.Token),
		listenbrainz.WithTimeout(cfg.ListenBrainzTimeout()),
	)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid client config (%v)", err)}
	}
	return CheckListenBrainz(ctx, client, cfg.ListenBrainz.User)
}
