package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
)

const documentPrompt = "Você é um analista de licitações. Analise o edital recebido e responda em português com: " +
	"1) resumo do objeto; 2) requisitos de habilitação relevantes; 3) riscos e cláusulas restritivas; " +
	"4) recomendação objetiva sobre participar ou não."

// maxDocumentRunes bounds the edital text sent to the LLM.
const maxDocumentRunes = 12000

type RiskScorer interface {
	Assess(text, noticeID string) (domain.RiskAssessment, error)
}

// DocumentAnalysis pairs the deterministic risk score with the LLM's reading
// of the document. Warning is set when the LLM part could not be produced.
type DocumentAnalysis struct {
	Risk     domain.RiskAssessment `json:"risk"`
	Analysis string                `json:"analysis,omitempty"`
	Provider string                `json:"provider,omitempty"`
	Model    string                `json:"model,omitempty"`
	Warning  string                `json:"warning,omitempty"`
}

type Service struct {
	providers       map[string]Provider
	defaultProvider string
	systemPrompt    string
	scorer          RiskScorer
}

func NewService(providers map[string]Provider, defaultProvider, systemPrompt string, scorer RiskScorer) *Service {
	return &Service{
		providers:       providers,
		defaultProvider: defaultProvider,
		systemPrompt:    systemPrompt,
		scorer:          scorer,
	}
}

// Validate checks a request without calling the provider, so streaming
// handlers can reject it before committing to an event stream.
func (s *Service) Validate(req ChatRequest) error {
	if len(req.Messages) == 0 {
		return domain.ErrEmptyMessages
	}
	_, err := s.provider(req.Provider)
	return err
}

func (s *Service) Chat(ctx context.Context, req ChatRequest) (Completion, error) {
	p, req, err := s.prepare(req)
	if err != nil {
		return Completion{}, err
	}
	return p.Complete(ctx, req)
}

func (s *Service) StreamChat(ctx context.Context, req ChatRequest, onDelta func(string) error) (Completion, error) {
	p, req, err := s.prepare(req)
	if err != nil {
		return Completion{}, err
	}
	return p.Stream(ctx, req, onDelta)
}

// AnalyzeDocument scores the text and asks the default provider for a
// written analysis. Only a scoring failure is returned as an error.
func (s *Service) AnalyzeDocument(ctx context.Context, text, noticeID, provider string) (DocumentAnalysis, error) {
	assessment, err := s.scorer.Assess(text, noticeID)
	if err != nil {
		return DocumentAnalysis{}, err
	}
	out := DocumentAnalysis{Risk: assessment}

	p, err := s.provider(provider)
	if err != nil {
		out.Warning = "análise por IA indisponível: " + err.Error()
		return out, nil
	}

	req := ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: documentPrompt},
			{Role: RoleUser, Content: documentMessage(text, assessment)},
		},
	}
	completion, err := p.Complete(ctx, req)
	if err != nil {
		logging.NewLogger(ctx).LogWarnf("analyze_document", "provider=%s notice_id=%s error=%v", p.Name(), noticeID, err)
		out.Warning = "análise por IA indisponível: " + err.Error()
		return out, nil
	}

	out.Analysis = completion.Content
	out.Provider = completion.Provider
	out.Model = completion.Model
	return out, nil
}

func (s *Service) prepare(req ChatRequest) (Provider, ChatRequest, error) {
	if len(req.Messages) == 0 {
		return nil, req, domain.ErrEmptyMessages
	}
	p, err := s.provider(req.Provider)
	if err != nil {
		return nil, req, err
	}
	req.Messages = EnsureSystemPrompt(req.Messages, s.systemPrompt)
	return p, req, nil
}

func (s *Service) provider(name string) (Provider, error) {
	if name == "" {
		name = s.defaultProvider
	}
	switch name {
	case "groq", "lovable":
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotConfigured, name)
	}
	return p, nil
}

func documentMessage(text string, a domain.RiskAssessment) string {
	if r := []rune(text); len(r) > maxDocumentRunes {
		text = string(r[:maxDocumentRunes])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Classificação automática: risco %s (%d/100).\n", a.RiskLevel, a.RiskScore)
	if len(a.RiskFactors) > 0 {
		b.WriteString("Fatores detectados: " + strings.Join(a.RiskFactors, "; ") + ".\n")
	}
	b.WriteString("\nEdital:\n")
	b.WriteString(text)
	return b.String()
}
