// Package documents stores signed movement forms on disk and hands out
// time-limited download tokens for them.
package documents

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/renameio"

	"github.com/tphummel/ict_assets/internal/apperrors"
)

const (
	// MaxMovementFormSize is the largest movement form accepted.
	MaxMovementFormSize = 10 << 20
	// URLTTL is how long a signed download link stays valid.
	URLTTL = time.Hour

	movementFormDir = "movement-forms"
	pdfMIME         = "application/pdf"
	tokenIssuer     = "ict_assets/files"
)

// ErrInvalidSignature is returned when a download token is missing,
// expired, or issued for another file.
var ErrInvalidSignature = errors.New("invalid or expired file signature")

// Store keeps documents under a root directory.
type Store struct {
	root string
	key  []byte
	now  func() time.Time
}

// NewStore returns a Store rooted at dir, creating it when missing. secret
// signs download tokens.
func NewStore(dir, secret string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, movementFormDir), 0o750); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &Store{root: dir, key: []byte(secret), now: time.Now}, nil
}

// MovementFormPath returns the relative path of the movement form for an
// action.
func MovementFormPath(actionID string) string {
	return path.Join(movementFormDir, actionID+"-movement-form.pdf")
}

// SaveMovementForm validates data as a PDF within the size limit and
// atomically writes it for actionID. It returns the relative path.
func (s *Store) SaveMovementForm(actionID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperrors.New(apperrors.CodeValidation, "movement form is empty")
	}
	if len(data) > MaxMovementFormSize {
		return "", apperrors.Newf(apperrors.CodeValidation, "movement form is %s; the limit is %s",
			humanize.Bytes(uint64(len(data))), humanize.Bytes(MaxMovementFormSize))
	}
	if mt := mimetype.Detect(data); !mt.Is(pdfMIME) {
		return "", apperrors.Newf(apperrors.CodeValidation, "movement form must be a PDF, got %s", mt.String())
	}

	rel := MovementFormPath(actionID)
	if err := writeFileAtomically(filepath.Join(s.root, filepath.FromSlash(rel)), data, 0o640); err != nil {
		return "", fmt.Errorf("store movement form: %w", err)
	}
	return rel, nil
}

func writeFileAtomically(fpath string, b []byte, mode os.FileMode) error {
	t, err := renameio.TempFile(filepath.Dir(fpath), fpath)
	if err != nil {
		return err
	}
	defer func() {
		_ = t.Cleanup()
	}()
	if err := t.Chmod(mode); err != nil {
		return err
	}
	w := bufio.NewWriter(t)
	if _, err := w.Write(b); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

// Open opens a stored document by relative path.
func (s *Store) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "document not found", err)
	}
	return f, err
}

// resolve maps rel onto the store root and rejects paths that escape it.
func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)[1:]
	if clean == "" || clean != strings.TrimPrefix(rel, "/") {
		return "", apperrors.Newf(apperrors.CodeValidation, "invalid document path %q", rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

type fileClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// Sign returns a token granting read access to rel until the returned time.
func (s *Store) Sign(rel string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(URLTTL)
	claims := fileClaims{
		Path: rel,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign file token: %w", err)
	}
	return tok, exp, nil
}

// Verify checks that token grants access to rel.
func (s *Store) Verify(rel, token string) error {
	var claims fileClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if claims.Path != rel {
		return ErrInvalidSignature
	}
	return nil
}
