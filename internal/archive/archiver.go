package archive

import (
	"context"
	"errors"
	"time"

	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

type sink interface {
	Put(ctx context.Context, log *CallLog) error
}

// Archiver writes a finished session to every configured sink.
type Archiver struct {
	sinks  []sink
	now    func() time.Time
	logger *logging.Logger
}

// NewArchiver accepts nil stores; an archiver with no sinks does nothing.
func NewArchiver(sqlStore *SQLStore, s3Store *S3Store, logger *logging.Logger) *Archiver {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Archiver{now: func() time.Time { return time.Now().UTC() }, logger: logger}
	if sqlStore != nil {
		a.sinks = append(a.sinks, sqlStore)
	}
	if s3Store.Enabled() {
		a.sinks = append(a.sinks, s3Store)
	}
	return a
}

// Archive writes to all sinks and joins their errors.
func (a *Archiver) Archive(ctx context.Context, s *session.Session) error {
	if a == nil || len(a.sinks) == 0 {
		return nil
	}
	log := FromSession(s, a.now())
	var errs []error
	for _, sk := range a.sinks {
		if err := sk.Put(ctx, log); err != nil {
			a.logger.Warn("call log archive failed", "error", err, "session_id", s.ID)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
