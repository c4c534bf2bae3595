package monitoring

import (
	"database/sql"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Files younger than this are never swept; an upload may still be between
// the file write and the pet row insert.
const sweepGracePeriod = time.Hour

// PhotoSweeper periodically removes upload-directory files that no pet row
// references anymore, e.g. leftovers from requests that failed after the
// photo was written.
type PhotoSweeper struct {
	db        *sql.DB
	uploadDir string
	cron      *cron.Cron
}

// NewPhotoSweeper creates a sweeper for the given upload directory.
func NewPhotoSweeper(db *sql.DB, uploadDir string) *PhotoSweeper {
	return &PhotoSweeper{
		db:        db,
		uploadDir: uploadDir,
		cron:      cron.New(),
	}
}

// Start schedules the hourly sweep.
func (s *PhotoSweeper) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("dir", s.uploadDir).Msg("Starting hourly orphan photo sweep")
	return nil
}

// Stop halts the sweep schedule. A sweep already in progress finishes.
func (s *PhotoSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep removes orphaned photo files past the grace period.
func (s *PhotoSweeper) Sweep() {
	referenced, err := s.referencedPhotos()
	if err != nil {
		log.Error().Err(err).Msg("Sweep: failed to load referenced photos")
		return
	}

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		log.Error().Err(err).Str("dir", s.uploadDir).Msg("Sweep: failed to read upload directory")
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < sweepGracePeriod {
			continue
		}
		if err := os.Remove(filepath.Join(s.uploadDir, entry.Name())); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Sweep: failed to remove orphan photo")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Sweep: orphan photos removed")
	}
}

// referencedPhotos returns the set of photo filenames still attached to a
// pet row.
func (s *PhotoSweeper) referencedPhotos() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT photo FROM pets WHERE photo IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	referenced := make(map[string]bool)
	for rows.Next() {
		var photo string
		if err := rows.Scan(&photo); err != nil {
			return nil, err
		}
		referenced[path.Base(photo)] = true
	}
	return referenced, rows.Err()
}
