package localdb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/cryptox"
	"github.com/dmitrijs2005/devcms/internal/dbx"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

// Tx is the view of the store handed to View and Update callbacks.
type Tx struct {
	q      dbx.DBTX
	schema map[string]models.TableMeta
	key    []byte
	logger logging.Logger
}

// Collection returns the named collection as declared at the last open.
func (t *Tx) Collection(name string) (*Collection, error) {
	m, ok := t.schema[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	logger := t.logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Collection{q: t.q, meta: m, key: t.key, logger: logger}, nil
}

// Tables lists the declared collections.
func (t *Tx) Tables() []models.TableMeta {
	out := make([]models.TableMeta, 0, len(t.schema))
	for _, m := range t.schema {
		out = append(out, m)
	}
	return out
}

// Doc is a stored document with its key. Raw is always plaintext JSON.
type Doc struct {
	Key string
	Raw json.RawMessage
}

// Cond is an equality filter on a document field.
type Cond struct {
	Field string
	Value any
}

// Query selects documents by field equality, ordered by fields (ascending
// unless Desc), then by insertion order.
type Query struct {
	Where   []Cond
	OrderBy []string
	Desc    bool
	Limit   int
}

// Collection is a keyed set of JSON documents.
type Collection struct {
	q      dbx.DBTX
	meta   models.TableMeta
	key    []byte
	logger logging.Logger
}

func (c *Collection) Name() string { return c.meta.Name }

func (c *Collection) Meta() models.TableMeta { return c.meta }

func (c *Collection) table() string { return dbx.QuoteIdent(c.meta.Name) }

// Put upserts doc under the key found at the collection's key path.
func (c *Collection) Put(ctx context.Context, doc any) (string, error) {
	raw, key, err := c.encodeWithKey(doc)
	if err != nil {
		return "", err
	}
	if err := c.write(ctx, key, raw); err != nil {
		return "", err
	}
	return key, nil
}

// PutKey upserts doc under an explicit key.
func (c *Collection) PutKey(ctx context.Context, key string, doc any) error {
	if key == "" {
		return ErrMissingKey
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.meta.Name, key, err)
	}
	return c.write(ctx, key, raw)
}

// Add inserts doc unless its key already exists. It reports whether a row
// was written; an existing document is never modified.
func (c *Collection) Add(ctx context.Context, doc any) (bool, error) {
	raw, key, err := c.encodeWithKey(doc)
	if err != nil {
		return false, err
	}
	sealed, err := c.seal(raw)
	if err != nil {
		return false, err
	}
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO `+c.table()+` (key, doc) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, key, string(sealed))
	if err != nil {
		return false, fmt.Errorf("add %s/%s: %w", c.meta.Name, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Collection) write(ctx context.Context, key string, raw []byte) error {
	sealed, err := c.seal(raw)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO ` + c.table() + ` (key, doc) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET doc = excluded.doc`
	if _, err := c.q.ExecContext(ctx, stmt, key, string(sealed)); err != nil {
		return fmt.Errorf("put %s/%s: %w", c.meta.Name, key, err)
	}
	return nil
}

// Get decodes the document stored under key into dst.
func (c *Collection) Get(ctx context.Context, key string, dst any) error {
	var doc string
	err := c.q.QueryRowContext(ctx, `SELECT doc FROM `+c.table()+` WHERE key = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, c.meta.Name, key)
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", c.meta.Name, key, err)
	}
	raw, err := c.open([]byte(doc))
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", c.meta.Name, key, err)
	}
	return json.Unmarshal(raw, dst)
}

// Delete removes key and reports whether it existed. Deleting a missing key
// is not an error.
func (c *Collection) Delete(ctx context.Context, key string) (bool, error) {
	res, err := c.q.ExecContext(ctx, `DELETE FROM `+c.table()+` WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", c.meta.Name, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.meta.Name, err)
	}
	return n, nil
}

func (c *Collection) Clear(ctx context.Context) error {
	if _, err := c.q.ExecContext(ctx, `DELETE FROM `+c.table()); err != nil {
		return fmt.Errorf("clear %s: %w", c.meta.Name, err)
	}
	return nil
}

// All returns every document in insertion order.
func (c *Collection) All(ctx context.Context) ([]Doc, error) {
	return c.Find(ctx, Query{})
}

// Find returns the documents matching q. Field filters and ordering are not
// available on encrypted collections. A document that cannot be decrypted
// is logged and left out; the rest of the result is still returned.
func (c *Collection) Find(ctx context.Context, q Query) ([]Doc, error) {
	if c.meta.IsEncrypted {
		if len(q.Where) > 0 || len(q.OrderBy) > 0 {
			return nil, ErrEncryptedQuery
		}
		if len(c.key) == 0 {
			return nil, ErrEncryptionKeyRequired
		}
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT key, doc FROM ` + c.table())
	for i, cond := range q.Where {
		if !fieldPathRe.MatchString(cond.Field) {
			return nil, fmt.Errorf("%w: field %q", ErrInvalidTableMeta, cond.Field)
		}
		if i == 0 {
			sb.WriteString(` WHERE `)
		} else {
			sb.WriteString(` AND `)
		}
		sb.WriteString(jsonPath(cond.Field) + ` = ?`)
		args = append(args, sqlValue(cond.Value))
	}
	sb.WriteString(` ORDER BY `)
	dir := ` ASC`
	if q.Desc {
		dir = ` DESC`
	}
	for _, f := range q.OrderBy {
		if !fieldPathRe.MatchString(f) {
			return nil, fmt.Errorf("%w: field %q", ErrInvalidTableMeta, f)
		}
		sb.WriteString(jsonPath(f) + dir + `, `)
	}
	sb.WriteString(`rowid` + dir)
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := c.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.meta.Name, err)
	}
	defer rows.Close()

	var out []Doc
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("find %s: %w", c.meta.Name, err)
		}
		raw, err := c.open([]byte(doc))
		if err != nil {
			c.logger.Warn(ctx, "skipping unreadable document", "collection", c.meta.Name, "key", key, "err", err)
			continue
		}
		out = append(out, Doc{Key: key, Raw: raw})
	}
	return out, rows.Err()
}

// sqlValue maps Go values to what json_extract yields for the same JSON.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func (c *Collection) encodeWithKey(doc any) ([]byte, string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", c.meta.Name, err)
	}
	key, err := extractKey(raw, c.meta.KeyPath)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", c.meta.Name, err)
	}
	return raw, key, nil
}

// extractKey reads the value at a dotted key path. Strings and numbers are
// accepted as keys.
func extractKey(raw []byte, keyPath string) (string, error) {
	if keyPath == "" {
		return "", fmt.Errorf("%w: collection has no key path", ErrMissingKey)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var cur any
	if err := dec.Decode(&cur); err != nil {
		return "", err
	}
	for _, part := range strings.Split(keyPath, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingKey, keyPath)
		}
		cur = obj[part]
	}
	switch v := cur.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case json.Number:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingKey, keyPath)
}

func (c *Collection) seal(raw []byte) ([]byte, error) {
	if !c.meta.IsEncrypted {
		return raw, nil
	}
	if len(c.key) == 0 {
		return nil, ErrEncryptionKeyRequired
	}
	s, err := cryptox.Seal(raw, c.key)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func (c *Collection) open(doc []byte) ([]byte, error) {
	if !c.meta.IsEncrypted {
		return doc, nil
	}
	if len(c.key) == 0 {
		return nil, ErrEncryptionKeyRequired
	}
	var s cryptox.Sealed
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, err
	}
	return cryptox.Open(&s, c.key)
}

// Decode unmarshals docs into T. Documents that fail to decode are reported
// to skip (if non-nil) and left out of the result.
func Decode[T any](docs []Doc, skip func(key string, err error)) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Raw, &v); err != nil {
			if skip != nil {
				skip(d.Key, err)
			}
			continue
		}
		out = append(out, v)
	}
	return out
}
