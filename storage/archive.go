package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/robot-tournaments/events"
	"github.com/google/uuid"
)

// BracketArchive stores a JSON snapshot of every finished tournament in object storage.
// It listens to TOURNAMENT_FINISHED and ignores every other event.
type BracketArchive struct {
	uploader FileUploader
	logger   *slog.Logger
}

func NewBracketArchive(uploader FileUploader, logger *slog.Logger) *BracketArchive {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketArchive{uploader: uploader, logger: logger}
}

// ArchiveKey is tournaments/<id>/bracket-<uuid>.json; the uuid keeps re-uploads apart.
func ArchiveKey(tournamentID int64) string {
	return fmt.Sprintf("tournaments/%d/bracket-%s.json", tournamentID, uuid.NewString())
}

func (a *BracketArchive) Publish(ctx context.Context, event events.Event) error {
	if a.uploader == nil || event.Type != events.TournamentFinished {
		return nil
	}
	result, err := UploadJSON(ctx, a.uploader, ArchiveKey(event.TournamentID), event)
	if err != nil {
		return fmt.Errorf("failed to archive bracket of tournament %d: %w", event.TournamentID, err)
	}
	a.logger.InfoContext(ctx, "bracket archived",
		slog.Int64("tournament_id", event.TournamentID),
		slog.String("key", result.Key),
		slog.String("location", result.Location))
	return nil
}
