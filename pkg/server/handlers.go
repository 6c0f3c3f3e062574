package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/japaniel/wordlens/pkg/apperrors"
	"github.com/japaniel/wordlens/pkg/coordinator"
	"github.com/japaniel/wordlens/pkg/highlight"
	"github.com/japaniel/wordlens/pkg/messaging"
	"github.com/japaniel/wordlens/pkg/page"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// TabIDHeader carries the tab id of a page opened through /read.
const TabIDHeader = "X-Tab-ID"

const maxMessageBytes = 64 << 10

// WordList is the popup listing.
type WordList struct {
	Words []vocab.Item `json:"words"`
	Total int          `json:"total"`
}

func newWordList(v vocab.Vocab) WordList {
	return WordList{Words: v.Sorted(), Total: len(v)}
}

// menuEntry is a menu item with its title rendered for the current
// selection, if any.
type menuEntry struct {
	coordinator.MenuItem
	Label string `json:"label,omitempty"`
}

func (s *Server) listMenu(c *gin.Context) {
	selection := strings.TrimSpace(c.Query("selection"))
	items := s.deps.Menu.Items()
	out := make([]menuEntry, 0, len(items))
	for _, item := range items {
		entry := menuEntry{MenuItem: item}
		if selection != "" {
			entry.Label = item.Label(selection)
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (s *Server) menuClick(c *gin.Context) {
	var click coordinator.MenuClick
	if err := c.ShouldBindJSON(&click); err != nil {
		_ = c.Error(apperrors.Wrap(err, "INVALID_CLICK", "Request body must be a menu click", http.StatusBadRequest))
		return
	}
	out, err := s.deps.Coordinator.OnMenuClick(c.Request.Context(), click)
	if err != nil {
		_ = c.Error(apperrors.Internal(err, "Could not add word"))
		return
	}
	status := http.StatusOK
	if out.Status == coordinator.StatusAdded {
		status = http.StatusCreated
	}
	c.JSON(status, out)
}

func (s *Server) badge(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Coordinator.Badge().State())
}

func (s *Server) listWords(c *gin.Context) {
	v, err := s.deps.Store.Load(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Internal(err, "Could not read word list"))
		return
	}
	c.JSON(http.StatusOK, newWordList(v))
}

func (s *Server) deleteWord(c *gin.Context) {
	word := strings.ToLower(c.Param("word"))
	v, err := s.deps.Store.Delete(c.Request.Context(), word)
	if errors.Is(err, vocab.ErrNotFound) {
		_ = c.Error(apperrors.NotFound("WORD_NOT_FOUND", "Word "+word+" is not in the list"))
		return
	}
	if err != nil {
		_ = c.Error(apperrors.Internal(err, "Could not delete word"))
		return
	}
	c.JSON(http.StatusOK, newWordList(v))
}

func (s *Server) clearWords(c *gin.Context) {
	if c.Query("confirm") != "true" {
		_ = c.Error(apperrors.BadRequest("CONFIRMATION_REQUIRED", "Clearing the list requires confirm=true"))
		return
	}
	if err := s.deps.Store.Clear(c.Request.Context()); err != nil {
		_ = c.Error(apperrors.Internal(err, "Could not clear word list"))
		return
	}
	c.JSON(http.StatusOK, newWordList(vocab.Vocab{}))
}

func (s *Server) read(c *gin.Context) {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		_ = c.Error(apperrors.BadRequest("URL_REQUIRED", "Query parameter url is required"))
		return
	}
	sess, err := s.deps.Sessions.Open(c.Request.Context(), rawURL)
	if err != nil {
		if errors.Is(err, page.ErrTooLarge) {
			_ = c.Error(apperrors.Wrap(err, "PAGE_TOO_LARGE", "Page exceeds the size limit", http.StatusRequestEntityTooLarge))
			return
		}
		_ = c.Error(apperrors.Wrap(err, "FETCH_FAILED", "Could not load "+rawURL, http.StatusBadGateway))
		return
	}
	s.writeTab(c, sess)
}

func (s *Server) tab(c *gin.Context) (*page.Session, bool) {
	sess, ok := s.deps.Sessions.Get(c.Param("id"))
	if !ok {
		_ = c.Error(apperrors.NotFound("TAB_NOT_FOUND", "No open tab "+c.Param("id")))
	}
	return sess, ok
}

func (s *Server) renderTab(c *gin.Context) {
	if sess, ok := s.tab(c); ok {
		s.writeTab(c, sess)
	}
}

func (s *Server) writeTab(c *gin.Context, sess *page.Session) {
	var buf bytes.Buffer
	tabURL := "/tabs/" + sess.ID
	err := sess.Render(&buf, highlight.InjectOptions{EventsURL: tabURL + "/events", TabURL: tabURL})
	if err != nil {
		_ = c.Error(apperrors.Internal(err, "Could not render page"))
		return
	}
	c.Header(TabIDHeader, sess.ID)
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) closeTab(c *gin.Context) {
	if _, ok := s.tab(c); ok {
		s.deps.Sessions.Close(c.Param("id"))
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) postMessage(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMessageBytes))
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, "INVALID_MESSAGE", "Could not read message", http.StatusBadRequest))
		return
	}
	msg, err := messaging.Decode(raw)
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, "INVALID_MESSAGE", err.Error(), http.StatusBadRequest))
		return
	}
	s.send(c, msg, "delivered")
}

func (s *Server) refreshTab(c *gin.Context) {
	s.send(c, messaging.RefreshHighlight{}, "reloaded")
}

func (s *Server) send(c *gin.Context, msg messaging.Message, status string) {
	err := s.deps.Hub.Send(c.Request.Context(), c.Param("id"), msg)
	if errors.Is(err, messaging.ErrNoReceiver) {
		_ = c.Error(apperrors.NotFound("TAB_NOT_FOUND", "No open tab "+c.Param("id")))
		return
	}
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, "DELIVERY_FAILED", "Could not deliver "+msg.Action(), http.StatusBadGateway))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": status})
}
