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
	"github.com/mikey/llm-phishing-filter/internal/core"
	"go.uber.org/zap"
)

// PostfixFilter implements a Postfix content filter that scores incoming
// messages for phishing risk, stamps the result headers and relays the
// message back to Postfix
type PostfixFilter struct {
	service        *core.PhishingScorerService
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockPhishing  bool
	statusHeader   string
	scoreHeader    string
	reasonHeader   string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.PhishingScorerService,
	logger *zap.Logger,
	listenAddr string,
	blockPhishing bool,
	statusHeader string,
	scoreHeader string,
	reasonHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *PostfixFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[**PHISHING**] "
	}

	return &PostfixFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		blockPhishing:  blockPhishing,
		statusHeader:   statusHeader,
		scoreHeader:    scoreHeader,
		reasonHeader:   reasonHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail scores an email directly, bypassing the SMTP front-end.
// Mainly used for testing or direct API calls.
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.CombinedResult, error) {
	return f.service.AnalyzeEmail(ctx, email), nil
}

// sendToPostfix relays the processed email back to Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
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

	if _, err = wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return c.Quit()
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Logout handles session teardown
func (s *smtpSession) Logout() error {
	return nil
}

// AuthPlain handles PLAIN authentication (not needed for our filter)
func (s *smtpSession) AuthPlain(_, _ string) error {
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

// Data scores the message, stamps the result headers and relays it onward
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

	email := &core.Email{
		Headers: make(map[string][]string),
		Body:    textContent,
		From:    s.sender,
		To:      s.recipients,
	}

	for key, values := range msg.Header {
		email.Headers[key] = values
		if strings.EqualFold(key, "Subject") && len(values) > 0 {
			email.Subject = values[0]
		}
	}

	senderDomain := "unknown"
	if parts := strings.Split(email.From, "@"); len(parts) == 2 {
		senderDomain = parts[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// The scorer degrades internally; a failed AI call shows up as the
	// neutral fallback score, never as an error here
	result := s.filter.service.AnalyzeEmail(ctx, email)
	isPhishing := s.filter.service.IsPhishing(result)

	s.filter.logger.Info("Scored email",
		zap.String("sender", email.From),
		zap.String("sender_domain", senderDomain),
		zap.Float64("rule_score", result.RuleBasedScore),
		zap.Float64("ai_score", result.AIAnalysis.RiskScore),
		zap.Float64("combined_risk", result.CombinedRisk),
		zap.Bool("is_phishing", isPhishing))

	if isPhishing && s.filter.blockPhishing {
		s.filter.logger.Info("Rejecting phishing email",
			zap.String("from", email.From),
			zap.String("sender_domain", senderDomain),
			zap.Float64("combined_risk", result.CombinedRisk))
		return fmt.Errorf("550 Rejected as phishing (risk: %.2f)", result.CombinedRisk)
	}

	modifiedEmail := s.rewriteMessage(msg, rawData, result, isPhishing)

	if s.filter.postfixEnabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, modifiedEmail); err != nil {
			s.filter.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", email.From))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix relay disabled, message accepted but not forwarded",
			zap.String("sender", email.From))
	}

	return nil
}

// rewriteMessage rebuilds the raw message with the phishing headers stamped
// and, when configured, the subject tagged. The original body bytes are
// preserved so MIME parts and attachments pass through untouched.
func (s *smtpSession) rewriteMessage(msg *mail.Message, rawData []byte, result *core.CombinedResult, isPhishing bool) []byte {
	var modified bytes.Buffer

	reason := strings.Join(result.AIAnalysis.DetailedThreats.Reasoning, "; ")
	fmt.Fprintf(&modified, "%s: %t\r\n", s.filter.statusHeader, isPhishing)
	fmt.Fprintf(&modified, "%s: %.4f\r\n", s.filter.scoreHeader, result.CombinedRisk)
	fmt.Fprintf(&modified, "%s: %s\r\n", s.filter.reasonHeader, reason)

	tagSubject := isPhishing && s.filter.modifySubject && s.filter.subjectPrefix != ""
	if tagSubject {
		originalSubject := msg.Header.Get("Subject")
		decodedSubject, err := decodeEncodedHeader(originalSubject)
		if err != nil {
			decodedSubject = originalSubject
		}
		if !strings.HasPrefix(decodedSubject, s.filter.subjectPrefix) {
			fmt.Fprintf(&modified, "Subject: %s%s\r\n", s.filter.subjectPrefix, decodedSubject)
		} else {
			tagSubject = false
		}
	}

	for key, values := range msg.Header {
		if tagSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&modified, "%s: %s\r\n", key, value)
		}
	}

	fmt.Fprintf(&modified, "\r\n")

	// Locate the original body so MIME structure survives the rewrite
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx != -1 {
		modified.Write(rawData[idx+4:])
	} else if idx := bytes.Index(rawData, []byte("\n\n")); idx != -1 {
		modified.Write(rawData[idx+2:])
	}

	return modified.Bytes()
}
