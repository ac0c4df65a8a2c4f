// Package answer composes the reply to a customer question from the
// retrieved products, with a deterministic fallback when no generative
// answerer is available.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
	"github.com/kailas-cloud/catalogsearch/internal/domain/intent"
	"github.com/kailas-cloud/catalogsearch/internal/domain/pricing"
)

// Answer sources.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
)

// DefaultTimeout bounds one answerer call.
const DefaultTimeout = 30 * time.Second

// Reply is the composed answer with the products it is based on.
type Reply struct {
	Answer string
	Source string
	Items  []domain.RetrievedProduct
	Intent intent.QueryIntent
}

// Service retrieves products and asks the answerer to describe them.
type Service struct {
	retriever Retriever
	answerer  Answerer
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an answer service. A nil answerer always uses FallbackAnswer.
func New(retriever Retriever, answerer Answerer, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{retriever: retriever, answerer: answerer, timeout: timeout, logger: logger}
}

// Ask answers question from up to limit retrieved products. It never fails:
// answerer errors and refusals degrade to FallbackAnswer.
func (s *Service) Ask(ctx context.Context, question string, limit int) Reply {
	res := s.retriever.Retrieve(ctx, question, limit)
	reply := Reply{Items: res.Items, Intent: res.Intent, Source: SourceFallback}

	if s.answerer == nil || strings.TrimSpace(question) == "" {
		reply.Answer = FallbackAnswer(question, res.Items)
		return reply
	}

	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.answerer.Answer(actx, question, res.Items)
	switch {
	case err == nil:
		reply.Answer = text
		reply.Source = SourceGenerated
	case errors.Is(err, domain.ErrAnswerRefused):
		s.logger.Info("Answerer refused, using fallback", zap.Error(err))
		reply.Answer = FallbackAnswer(question, res.Items)
	default:
		s.logger.Warn("Answerer failed, using fallback", zap.Error(err))
		reply.Answer = FallbackAnswer(question, res.Items)
	}
	return reply
}

// NoResultsAnswer is returned when nothing matched the question.
const NoResultsAnswer = "Xin lỗi, hiện mình chưa tìm thấy sản phẩm phù hợp với yêu cầu của bạn. " +
	"Bạn có thể cho mình biết thêm về hãng hoặc mức giá mong muốn không?"

// FallbackAnswer enumerates the products as a numbered Vietnamese list.
// It depends only on its inputs.
func FallbackAnswer(question string, items []domain.RetrievedProduct) string {
	if len(items) == 0 {
		return NoResultsAnswer
	}

	var b strings.Builder
	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&b, "Với câu hỏi \"%s\", mình gợi ý các sản phẩm sau:\n", q)
	} else {
		b.WriteString("Mình gợi ý các sản phẩm sau:\n")
	}
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s", i+1, it.Name)
		if it.Brand != "" {
			fmt.Fprintf(&b, " (%s)", it.Brand)
		}
		if it.ActivePrice != nil {
			b.WriteString(" - " + pricing.FormatVND(*it.ActivePrice))
		} else {
			b.WriteString(" - chưa có giá")
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
