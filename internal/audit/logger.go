// Package audit records who did what to which resource. Writes are
// best-effort; an audit failure never fails the caller's request.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"my-friends/backend/internal/audit/domain"
	auditrepo "my-friends/backend/internal/audit/repository"
)

// Logger writes audit entries through the repository.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns a logger persisting to repo. repo may be nil, which
// disables auditing.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent writes one audit entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, ip, metadata string) {
	if l.repo == nil {
		return
	}
	if ip == "" {
		ip = "unknown"
	}
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
