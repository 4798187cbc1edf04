package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
)

type AuditService struct {
	logChan chan *model.AuditLog
	logFile *os.File
	buffer  *ring[*model.AuditLog]
	repo    AuditRepo
	done    chan struct{}
}

type AuditRepo interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, ownerID string, limit int, from, to *time.Time) ([]*model.AuditLog, error)
}

func NewAuditService(logDir string, bufferSize int, repo AuditRepo) (*AuditService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	// One file per start day.
	filename := filepath.Join(logDir, "audit-"+time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	svc := &AuditService{
		logChan: make(chan *model.AuditLog, bufferSize),
		logFile: f,
		buffer:  newRing[*model.AuditLog](bufferSize),
		repo:    repo,
		done:    make(chan struct{}),
	}

	go svc.processLogs()

	return svc, nil
}

func (s *AuditService) Log(entry *model.AuditLog) {
	if entry == nil {
		return
	}
	s.buffer.Add(entry)
	select {
	case s.logChan <- entry:
	default:
		// Never block the request path on audit persistence.
		logger.Warn("audit log queue full, dropping entry", "id", entry.ID, "path", entry.Path)
	}
}

// List prefers the repository and falls back to the in-memory buffer.
func (s *AuditService) List(ctx context.Context, ownerID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, ownerID, limit, from, to)
		if err == nil {
			return records, nil
		}
		logger.Warn("audit repo list failed, serving buffer", "error", err)
	}
	return s.buffer.List(limit, func(entry *model.AuditLog) bool {
		if entry == nil {
			return false
		}
		if ownerID != "" && entry.OwnerID != ownerID {
			return false
		}
		if from != nil && entry.CreatedAt.Before(*from) {
			return false
		}
		if to != nil && entry.CreatedAt.After(*to) {
			return false
		}
		return true
	}), nil
}

func (s *AuditService) processLogs() {
	defer close(s.done)
	encoder := json.NewEncoder(s.logFile)
	for entry := range s.logChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), entry); err != nil {
				logger.Error("failed to write audit log to db", "error", err)
			}
		}
		if err := encoder.Encode(entry); err != nil {
			logger.Error("failed to write audit log", "error", err)
		}
	}
}

// Close drains queued entries before closing the file.
func (s *AuditService) Close() {
	close(s.logChan)
	<-s.done
	s.logFile.Close()
}
