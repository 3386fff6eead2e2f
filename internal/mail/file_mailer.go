package mail

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// FileMailer appends every message as one JSON line to an outbox file and
// syncs it to disk before returning.
type FileMailer struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func NewFileMailer(filePath string) (*FileMailer, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &FileMailer{
		filePath: filePath,
		file:     file,
	}, nil
}

func (m *FileMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	msg = stamp(msg)

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.file.Write(append(data, '\n')); err != nil {
		logger.Log.Error("Mail outbox: failed to write message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}

	if err := m.file.Sync(); err != nil {
		logger.Log.Error("Mail outbox: failed to sync to disk",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Mail outbox: message written",
		zap.String("message_id", msg.ID),
		zap.Strings("to", msg.To),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// ReadAll returns every message in the outbox, skipping malformed lines.
func (m *FileMailer) ReadAll() ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.Open(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Message{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var messages []Message
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, scanner.Err()
}

func (m *FileMailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
