package service

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/korusync/korusync/internal/markdown"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/stats"
	"github.com/korusync/korusync/internal/validation"
)

const (
	MaxJournalContent = 50000
	MaxJournalImport  = 1 << 20
)

var (
	ErrJournalContentTooLong = fmt.Errorf("entry is too long (max %d characters)", MaxJournalContent)
	ErrJournalImportTooLarge = errors.New("import file too large: maximum size is 1 MB")
)

type JournalInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Mood      *int   `json:"mood"`
	EntryDate string `json:"entry_date"`
}

// JournalUpdate carries optional changes; nil fields are left alone.
type JournalUpdate struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Mood      *int    `json:"mood"`
	ClearMood bool    `json:"clear_mood"`
	EntryDate *string `json:"entry_date"`
}

type JournalService struct {
	repo         repository.JournalRepository
	parser       *markdown.Parser
	profiles     repository.ProfileRepository
	gamification *GamificationService
	now          func() time.Time
}

func NewJournalService(
	repo repository.JournalRepository,
	parser *markdown.Parser,
	profiles repository.ProfileRepository,
	gamification *GamificationService,
) *JournalService {
	return &JournalService{
		repo:         repo,
		parser:       parser,
		profiles:     profiles,
		gamification: gamification,
		now:          time.Now,
	}
}

// Entries lists entries between two local dates; empty bounds are open.
func (s *JournalService) Entries(userID, from, to string) ([]*model.JournalEntry, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		err := validation.ValidateDate(d)
		if err != nil {
			return nil, err
		}
	}
	return s.repo.Entries(userID, from, to)
}

// ByID returns the entry with its markdown rendered to HTML.
func (s *JournalService) ByID(userID, entryID string) (*model.JournalEntry, error) {
	entry, err := s.repo.ByID(userID, entryID)
	if err != nil {
		return nil, err
	}

	html, err := s.parser.Render(entry.Content)
	if err != nil {
		slog.Warn("failed to render journal entry", "error", err, "entry_id", entryID)
		return entry, nil
	}
	entry.HTML = html
	return entry, nil
}

func (s *JournalService) Create(userID string, in JournalInput) (*model.JournalEntry, error) {
	if in.EntryDate == "" {
		in.EntryDate = stats.LocalDate(s.now(), userLocation(s.profiles, userID))
	}
	in.Title = strings.TrimSpace(in.Title)

	err := validateJournal(in.Title, in.Content, in.Mood, in.EntryDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &model.JournalEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		Mood:      in.Mood,
		EntryDate: in.EntryDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.Create(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}

	_, _, err = s.gamification.RecordActivity(userID, Activity{
		XP:             XPJournalEntry,
		Date:           entry.EntryDate,
		JournalEntries: 1,
	})
	if err != nil {
		slog.Error("failed to record journal activity", "error", err, "user_id", userID)
	}

	return entry, nil
}

func (s *JournalService) Update(userID, entryID string, in JournalUpdate) (*model.JournalEntry, error) {
	entry, err := s.repo.ByID(userID, entryID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		entry.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		entry.Content = *in.Content
	}
	if in.ClearMood {
		entry.Mood = nil
	} else if in.Mood != nil {
		entry.Mood = in.Mood
	}
	if in.EntryDate != nil {
		entry.EntryDate = *in.EntryDate
	}

	err = validateJournal(entry.Title, entry.Content, entry.Mood, entry.EntryDate)
	if err != nil {
		return nil, err
	}

	err = s.repo.Update(entry)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *JournalService) Delete(userID, entryID string) error {
	return s.repo.Delete(userID, entryID)
}

// Import creates an entry from a markdown file with optional front matter
// (title, date, mood). Missing fields fall back to the file name and today.
func (s *JournalService) Import(userID, filename string, source []byte) (*model.JournalEntry, error) {
	if len(source) > MaxJournalImport {
		return nil, ErrJournalImportTooLarge
	}

	doc, err := s.parser.ParseDocument(source)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Meta.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	date := strings.TrimSpace(doc.Meta.Date)
	if len(date) > len(model.DateLayout) {
		// Accept full timestamps; keep the calendar date.
		date = date[:len(model.DateLayout)]
	}

	return s.Create(userID, JournalInput{
		Title:     title,
		Content:   doc.Body,
		Mood:      doc.Meta.Mood,
		EntryDate: date,
	})
}

func validateJournal(title, content string, mood *int, date string) error {
	if len([]rune(title)) > validation.MaxTitleLength {
		return validation.ErrTitleTooLong
	}
	if len([]rune(content)) > MaxJournalContent {
		return ErrJournalContentTooLong
	}
	err := validation.ValidateMood(mood)
	if err != nil {
		return err
	}
	return validation.ValidateDate(date)
}
