package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/triage"
	"go.uber.org/zap"
)

// SMTPFilter implements an SMTP content filter that triages every message
// passing through it and reinjects the annotated message upstream
type SMTPFilter struct {
	service         *triage.Service
	logger          *zap.Logger
	listenAddr      string
	server          *smtp.Server
	blockHighRisk   bool
	scoreHeader     string
	levelHeader     string
	summaryHeader   string
	upstreamAddr    string
	upstreamPort    int
	upstreamEnabled bool
	subjectPrefix   string
	modifySubject   bool
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *triage.Service,
	logger *zap.Logger,
	listenAddr string,
	blockHighRisk bool,
	scoreHeader string,
	levelHeader string,
	summaryHeader string,
	upstreamAddr string,
	upstreamPort int,
	upstreamEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *SMTPFilter {
	// If subject prefix is not set but modify subject is enabled, use default prefix
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[**PHISHING**] "
	}

	return &SMTPFilter{
		service:         service,
		logger:          logger,
		listenAddr:      listenAddr,
		blockHighRisk:   blockHighRisk,
		scoreHeader:     scoreHeader,
		levelHeader:     levelHeader,
		summaryHeader:   summaryHeader,
		upstreamAddr:    upstreamAddr,
		upstreamPort:    upstreamPort,
		upstreamEnabled: upstreamEnabled,
		subjectPrefix:   subjectPrefix,
		modifySubject:   modifySubject,
	}
}

// Start starts the SMTP filter service
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail triages an email directly, bypassing the SMTP transport.
// This is mainly used for testing or direct API calls.
func (f *SMTPFilter) ProcessEmail(ctx context.Context, email *core.EmailInput) (*core.AnalysisResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// sendUpstream reinjects the annotated email into the upstream MTA
func (f *SMTPFilter) sendUpstream(sender string, recipients []string, emailData []byte) error {
	upstreamAddr := fmt.Sprintf("%s:%d", f.upstreamAddr, f.upstreamPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", upstreamAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to upstream MTA: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			// Continue with other recipients even if one fails
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
		// The email has already been sent at this point
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data handles the email data
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	// Prefer the From header over the envelope sender; the header is what
	// the recipient sees and what impersonation targets.
	from := msg.Header.Get("From")
	if from == "" {
		from = s.sender
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	email := &core.EmailInput{
		From:       from,
		Subject:    subject,
		Body:       textContent,
		Headers:    rawHeaderBlock(rawData),
		AnalyzedAt: time.Now(),
	}

	senderDomain := "unknown"
	if parts := strings.Split(from, "@"); len(parts) == 2 {
		senderDomain = strings.Trim(parts[1], "> ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, analysisErr := s.filter.service.AnalyzeEmail(ctx, email)
	if analysisErr != nil {
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", from),
			zap.String("sender_domain", senderDomain))

		// Fail open: deliver with a neutral annotation rather than
		// bouncing mail on analysis errors.
		result = &core.AnalysisResult{
			Score:     0,
			RiskLevel: core.RiskLow,
			Summary:   fmt.Sprintf("Error during analysis: %v", analysisErr),
		}
	}

	isHighRisk := result.RiskLevel == core.RiskHigh

	if isHighRisk && s.filter.blockHighRisk && analysisErr == nil {
		s.filter.logger.Info("Rejecting high-risk email",
			zap.String("from", from),
			zap.String("sender_domain", senderDomain),
			zap.Int("score", result.Score),
			zap.String("summary", result.Summary))
		return fmt.Errorf("550 Rejected as likely phishing (score: %d)", result.Score)
	}

	var annotated bytes.Buffer

	// Triage headers go first
	fmt.Fprintf(&annotated, "%s: %d\r\n", s.filter.scoreHeader, result.Score)
	fmt.Fprintf(&annotated, "%s: %s\r\n", s.filter.levelHeader, result.RiskLevel)
	fmt.Fprintf(&annotated, "%s: %s\r\n", s.filter.summaryHeader, sanitizeHeaderValue(result.Summary))
	if analysisErr != nil {
		fmt.Fprintf(&annotated, "X-Phish-Analysis-Error: %s\r\n", sanitizeHeaderValue(analysisErr.Error()))
	}

	prefixSubject := isHighRisk && s.filter.modifySubject && s.filter.subjectPrefix != "" &&
		!strings.HasPrefix(subject, s.filter.subjectPrefix)

	for key, values := range msg.Header {
		if prefixSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&annotated, "%s: %s\r\n", key, value)
		}
	}
	if prefixSubject {
		fmt.Fprintf(&annotated, "Subject: %s%s\r\n", s.filter.subjectPrefix, subject)
	}

	fmt.Fprintf(&annotated, "\r\n")

	// Preserve the original body bytes, MIME parts and attachments included
	bodyStartIndex := bytes.Index(rawData, []byte("\r\n\r\n"))
	if bodyStartIndex >= 0 {
		annotated.Write(rawData[bodyStartIndex+4:])
	} else if bodyStartIndex = bytes.Index(rawData, []byte("\n\n")); bodyStartIndex >= 0 {
		annotated.Write(rawData[bodyStartIndex+2:])
	}

	if s.filter.upstreamEnabled {
		if err := s.filter.sendUpstream(s.sender, s.recipients, annotated.Bytes()); err != nil {
			s.filter.logger.Error("Failed to reinject email upstream",
				zap.Error(err),
				zap.String("sender", from))
			return err
		}
	} else {
		s.filter.logger.Warn("Upstream forwarding disabled, annotated message was dropped")
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", from),
		zap.String("sender_domain", senderDomain),
		zap.Int("score", result.Score),
		zap.String("risk_level", string(result.RiskLevel)))

	return nil
}

// Logout handles SMTP logout (not needed for the filter)
func (s *smtpSession) Logout() error {
	return nil
}

// sanitizeHeaderValue strips CR/LF so triage text cannot inject headers
func sanitizeHeaderValue(value string) string {
	value = strings.ReplaceAll(value, "\r\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}
