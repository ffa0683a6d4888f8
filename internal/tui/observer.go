package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/GerlachSG/Cruciflix/internal/catalog"
	"github.com/GerlachSG/Cruciflix/internal/domain"
	"github.com/GerlachSG/Cruciflix/internal/notify"
)

// CatalogObserver forwards catalog revalidation publishes to Bubble Tea
type CatalogObserver struct {
	ch   chan CatalogChangedMsg
	subs []*notify.Subscription
}

// NewCatalogObserver subscribes to movie, series and tag changes
func NewCatalogObserver(svc *catalog.Service) *CatalogObserver {
	o := &CatalogObserver{ch: make(chan CatalogChangedMsg, 8)}
	o.subs = append(o.subs,
		svc.OnMovies(func([]*domain.Movie) { o.send(domain.EntityMovies) }),
		svc.OnSeries(func([]*domain.Series) { o.send(domain.EntitySeries) }),
		svc.OnTags(func([]*domain.Tag) { o.send(domain.EntityTags) }),
	)
	return o
}

// send is non-blocking; a full channel already has a refresh pending
func (o *CatalogObserver) send(kind domain.EntityType) {
	select {
	case o.ch <- CatalogChangedMsg{Kind: kind}:
	default:
	}
}

// Wait returns a command that blocks until the next change
func (o *CatalogObserver) Wait() tea.Cmd {
	return func() tea.Msg {
		return <-o.ch
	}
}

// Close removes the subscriptions
func (o *CatalogObserver) Close() {
	for _, sub := range o.subs {
		sub.Unsubscribe()
	}
	o.subs = nil
}
