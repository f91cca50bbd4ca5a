// Package assistant bridges the storefront to an external generative-AI chat
// provider: it builds a catalog-aware context document, opens a scripted chat
// session, and resolves product references in replies.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

// ErrNotReady defers chat initialization until the catalog has data: the
// context document would be useless without at least one category and one
// product.
var ErrNotReady = errors.New("catalog not ready, assistant deferred")

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Message struct {
	Role string
	Text string
}

// ChatSession is one running conversation with the AI provider.
type ChatSession interface {
	SendMessage(ctx context.Context, text string) (string, error)
}

// ChatProvider opens chat sessions seeded with a scripted history.
type ChatProvider interface {
	StartChat(ctx context.Context, history []Message) (ChatSession, error)
}

// Catalog is the slice of the catalog cache the bridge reads.
type Catalog interface {
	Ready() bool
	Categories() []domain.Category
	Products() []domain.Product
	FindProductByID(id int64) (*domain.Product, bool)
}

// Reply is an assistant answer with any resolved product references.
type Reply struct {
	Text string
	Refs []ProductRef
}

type Bridge struct {
	mu      sync.Mutex
	session ChatSession

	provider ChatProvider
	catalog  Catalog
	lang     string
	log      *slog.Logger
}

func NewBridge(provider ChatProvider, catalog Catalog, lang string, log *slog.Logger) *Bridge {
	return &Bridge{provider: provider, catalog: catalog, lang: lang, log: log}
}

// Send forwards a user message, lazily opening the chat session on first use.
// No chat history is persisted across restarts.
func (b *Bridge) Send(ctx context.Context, text string) (*Reply, error) {
	session, err := b.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	answer, err := session.SendMessage(ctx, text)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Text: answer,
		Refs: b.resolveRefs(answer),
	}, nil
}

func (b *Bridge) ensureSession(ctx context.Context) (ChatSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		return b.session, nil
	}

	// nil provider means the assistant is disabled by configuration
	if b.provider == nil {
		return nil, ErrNotReady
	}
	if !b.catalog.Ready() || len(b.catalog.Categories()) == 0 || len(b.catalog.Products()) == 0 {
		return nil, ErrNotReady
	}

	doc := buildContextDocument(b.catalog, b.lang)
	session, err := b.provider.StartChat(ctx, openingExchange(doc))
	if err != nil {
		return nil, err
	}
	b.session = session
	b.log.Info("assistant chat session opened")
	return session, nil
}

func (b *Bridge) resolveRefs(answer string) []ProductRef {
	refs := ParseProductRefs(answer)
	for i := range refs {
		if product, ok := b.catalog.FindProductByID(refs[i].ProductID); ok {
			refs[i].Product = product
		}
	}
	// references that don't resolve stay plain text
	resolved := refs[:0]
	for _, ref := range refs {
		if ref.Product != nil {
			resolved = append(resolved, ref)
		}
	}
	return resolved
}

// openingExchange scripts the context hand-off the same way the mobile app
// primed its Gemini session.
func openingExchange(contextDoc string) []Message {
	return []Message{
		{Role: RoleUser, Text: "Here is the context for the Cyna storefront. Use it to answer user questions."},
		{Role: RoleModel, Text: "Understood. I will use this information to help Cyna users."},
		{Role: RoleUser, Text: contextDoc},
		{Role: RoleModel, Text: "Thank you. I am ready to answer questions about the catalog, payments, deliveries and returns."},
	}
}
