package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gazeta/internal/domain/content"
	"gazeta/internal/feed"
	"gazeta/internal/store"
)

const feedWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// snapshot returns the latest known content of c.
func (s *Server) snapshot(c store.Collection) store.Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snaps[c]
}

func (s *Server) setSnapshot(snap store.Snapshot) {
	s.snapMu.Lock()
	s.snaps[snap.Collection] = snap
	s.snapMu.Unlock()
}

// refresh reads c from the store now. Handlers call it after their own
// writes so the next page shows the change without waiting for the push.
func (s *Server) refresh(c store.Collection) error {
	snap, err := s.store.Snapshot(c)
	if err != nil {
		return err
	}
	s.setSnapshot(snap)
	return nil
}

// follow keeps the snapshot cache of c current until ctx ends.
func (s *Server) follow(ctx context.Context, c store.Collection) error {
	ch, err := s.store.Watch(ctx, c)
	if err != nil {
		return fmt.Errorf("serve: watch %s: %w", c, err)
	}
	go func() {
		for snap := range ch {
			s.setSnapshot(snap)
		}
	}()
	return nil
}

// feedMessage is one push of the live feed socket.
type feedMessage struct {
	Kind        string `json:"kind"`
	Fingerprint string `json:"fingerprint"`
	Items       any    `json:"items"`
	Page        int    `json:"page"`
	TotalPages  int    `json:"total_pages"`
	Total       int    `json:"total"`
	First       int    `json:"first"`
	Last        int    `json:"last"`
	Pages       []int  `json:"pages"`
}

func newFeedMessage[T any](kind, fingerprint string, w feed.Window[T]) feedMessage {
	return feedMessage{
		Kind:        kind,
		Fingerprint: fingerprint,
		Items:       w.Items,
		Page:        w.CurrentPage,
		TotalPages:  w.TotalPages,
		Total:       w.Total,
		First:       w.First,
		Last:        w.Last,
		Pages:       w.VisiblePages,
	}
}

// handleFeedSocket pushes the requested public feed page on every change of
// the underlying collection: kind=articles (default) or kind=issues.
func (s *Server) handleFeedSocket(c *gin.Context) {
	kind := c.DefaultQuery("kind", "articles")
	var (
		coll    store.Collection
		perPage int
	)
	switch kind {
	case "articles":
		coll, perPage = store.Articles, s.cfg.Feed.ListSize
	case "issues":
		coll, perPage = store.Issues, s.cfg.Feed.IssueSize
	default:
		c.String(http.StatusBadRequest, "unknown feed kind")
		return
	}
	q := feed.Query{
		Status:      content.StatusPublished,
		RequireSlug: true,
		Search:      c.Query("q"),
		Page:        queryInt(c, "page", 1),
		PerPage:     perPage,
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The reader only detects the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch, err := s.store.Watch(ctx, coll)
	if err != nil {
		s.log.Error("feed watch failed", zap.Error(err))
		return
	}
	for snap := range ch {
		var msg feedMessage
		if coll == store.Articles {
			msg = newFeedMessage(kind, snap.Fingerprint, s.pipeline.Articles(snap.Map(), q))
		} else {
			msg = newFeedMessage(kind, snap.Fingerprint, s.pipeline.Issues(snap.Map(), q))
		}
		_ = ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := ws.WriteJSON(msg); err != nil {
			s.log.Debug("feed client gone", zap.Error(err))
			return
		}
	}
}
