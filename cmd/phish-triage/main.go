package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/di"
	"github.com/phishguard/phishguard/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, emailFilter ports.EmailFilter, mlClassifier core.MLClassifier) error {
		defer logger.Sync()
		return runOnce(flags, logger, emailFilter, mlClassifier)
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// runOnce reads a single email, triages it and prints the report
func runOnce(flags *di.CLIFlags, logger *zap.Logger, emailFilter ports.EmailFilter, mlClassifier core.MLClassifier) error {
	email, err := readEmail(flags.InputFile, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if _, err := emailFilter.ProcessEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to analyze email: %w", err)
	}

	if closer, ok := mlClassifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close ML classifier", zap.Error(err))
		}
	}

	return nil
}

// readEmail parses an RFC 5322 message from a file or stdin
func readEmail(inputFile string, logger *zap.Logger) (*core.EmailInput, error) {
	var emailReader io.Reader
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", inputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Debug("Reading email from file", zap.String("file", inputFile))
	} else {
		emailReader = os.Stdin
		logger.Debug("Reading email from stdin")
	}

	rawData, err := io.ReadAll(emailReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	headers := ""
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx >= 0 {
		headers = string(rawData[:idx])
	} else if idx := bytes.Index(rawData, []byte("\n\n")); idx >= 0 {
		headers = string(rawData[:idx])
	}

	return &core.EmailInput{
		From:       msg.Header.Get("From"),
		Subject:    msg.Header.Get("Subject"),
		Body:       string(bodyBytes),
		Headers:    headers,
		AnalyzedAt: time.Now(),
	}, nil
}
