package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"errorcollector/src/config"
	"errorcollector/src/database"
	"errorcollector/src/repository"
	"errorcollector/src/webhook"

	logger "github.com/sirupsen/logrus"
)

// maxLineBytes bounds a single payload line in the dump file.
const maxLineBytes = 4 * 1024 * 1024

// Run replays a JSON-lines webhook payload dump through the normalizer and
// the repository, honoring the same action and project filters as the live
// endpoint.
func Run(path string) error {
	if err := database.InitMainDB(); err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}

	settings := config.GetSettings()
	repo := repository.NewErrorRepository()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dump file: %w", err)
	}
	defer file.Close()

	var stored, ignored, malformed int

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ctx := context.Background()
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal(line, &payload); err != nil {
			logger.WithError(err).WithField("line", lineNo).Warn("skipping malformed payload")
			malformed++
			continue
		}

		result := webhook.Normalize(payload)
		if result.Skip {
			ignored++
			continue
		}

		record := result.Record
		if settings.FilterByProject && settings.Project != "" &&
			record.Project != "" && record.Project != settings.Project {
			ignored++
			continue
		}

		record.RawPayload = string(line)
		record.ReceivedAt = time.Now().UTC()

		if err := repo.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to store payload at line %d: %w", lineNo, err)
		}
		stored++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed reading dump file: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"stored":    stored,
		"ignored":   ignored,
		"malformed": malformed,
	}).Info("Import finished")

	return nil
}
