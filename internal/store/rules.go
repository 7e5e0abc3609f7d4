// ABOUTME: Polymorphic rule model, resolver, and transactional persistence
// ABOUTME: One parent row per rule plus one child row in its variant's table

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RuleType is the stored discriminator identifying a rule's concrete
// variant. The set is closed; values are part of the schema contract.
type RuleType int64

const (
	RuleTypeFilterTrapp RuleType = 1
	RuleTypeFilterField RuleType = 2
)

// RuleHeader is the parent-row portion common to every variant.
type RuleHeader struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Rule is a stored filter rule, one of a closed set of variants. Adding a
// kind means a new discriminator constant, a new child table migration, a
// new variant type here, and one case in resolveRule; nothing existing
// changes.
type Rule interface {
	Header() RuleHeader
	Type() RuleType
}

// FilterTrappRule matches events belonging to one trapp.
type FilterTrappRule struct {
	RuleHeader
	TrappID int64 `json:"trapp_id"`
}

func (r FilterTrappRule) Header() RuleHeader { return r.RuleHeader }
func (r FilterTrappRule) Type() RuleType     { return RuleTypeFilterTrapp }

// FilterFieldRule matches events whose named field equals a value.
type FilterFieldRule struct {
	RuleHeader
	FieldKey   string `json:"field_key"`
	FieldValue string `json:"field_value"`
}

func (r FilterFieldRule) Header() RuleHeader { return r.RuleHeader }
func (r FilterFieldRule) Type() RuleType     { return RuleTypeFilterField }

// NewRule is a rule payload to be persisted. The parent insert is shared by
// CreateRule; each variant inserts its own child row. The unexported
// methods keep the variant set closed.
type NewRule interface {
	ruleName() string
	ruleType() RuleType
	insertPayload(ctx context.Context, tx *sql.Tx, id int64) error
}

// NewFilterTrappRule creates a FilterTrapp rule.
type NewFilterTrappRule struct {
	Name    string `json:"name"`
	TrappID int64  `json:"trapp_id"`
}

func (r NewFilterTrappRule) ruleName() string   { return r.Name }
func (r NewFilterTrappRule) ruleType() RuleType { return RuleTypeFilterTrapp }

func (r NewFilterTrappRule) insertPayload(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO rules_filter_trapp (rule_id, trapp_id) VALUES (?, ?)`,
		id, r.TrappID)
	return err
}

// NewFilterFieldRule creates a FilterField rule.
type NewFilterFieldRule struct {
	Name       string `json:"name"`
	FieldKey   string `json:"field_key"`
	FieldValue string `json:"field_value"`
}

func (r NewFilterFieldRule) ruleName() string   { return r.Name }
func (r NewFilterFieldRule) ruleType() RuleType { return RuleTypeFilterField }

func (r NewFilterFieldRule) insertPayload(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO rules_filter_field (rule_id, field_key, field_value) VALUES (?, ?, ?)`,
		id, r.FieldKey, r.FieldValue)
	return err
}

// CreateRule persists rule in one transaction on the held connection: the
// parent insert that assigns the id, then the variant's child row. Either
// both land or neither does; a failure in the second statement can not
// leave an orphaned parent row behind.
func CreateRule(ctx context.Context, conn *sql.Conn, rule NewRule) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning rule transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rules (name, type) VALUES (?, ?)`,
		rule.ruleName(), int64(rule.ruleType()))
	if err != nil {
		return 0, fmt.Errorf("inserting rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading rule id: %w", err)
	}

	if err := rule.insertPayload(ctx, tx, id); err != nil {
		return 0, fmt.Errorf("inserting rule payload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rule: %w", err)
	}
	return id, nil
}

// ListRules returns all rules in storage order, each resolved into its
// concrete variant. An unrecognized discriminator or a missing child row
// fails the whole read; that state is corruption, not something to skip.
func ListRules(ctx context.Context, conn *sql.Conn) ([]Rule, error) {
	rows, err := conn.QueryContext(ctx, `SELECT id, type, name FROM rules`)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}

	// Drain the parent rows before issuing child queries; both run on the
	// one connection the caller holds.
	type header struct {
		id   int64
		typ  RuleType
		name string
	}
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.id, &h.typ, &h.name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning rule row: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating rule rows: %w", err)
	}
	rows.Close()

	var rules []Rule
	for _, h := range headers {
		rule, err := resolveRule(ctx, conn, h.id, h.typ, h.name)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// resolveRule dispatches on the discriminator and fetches the child row
// that materializes the variant.
func resolveRule(ctx context.Context, conn *sql.Conn, id int64, typ RuleType, name string) (Rule, error) {
	hdr := RuleHeader{ID: id, Name: name}

	switch typ {
	case RuleTypeFilterTrapp:
		var trappID int64
		err := conn.QueryRowContext(ctx,
			`SELECT trapp_id FROM rules_filter_trapp WHERE rule_id = ?`, id).Scan(&trappID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %d: missing rules_filter_trapp row", id)
		}
		if err != nil {
			return nil, fmt.Errorf("querying filter_trapp payload: %w", err)
		}
		return FilterTrappRule{RuleHeader: hdr, TrappID: trappID}, nil

	case RuleTypeFilterField:
		var key, value string
		err := conn.QueryRowContext(ctx,
			`SELECT field_key, field_value FROM rules_filter_field WHERE rule_id = ?`, id).
			Scan(&key, &value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %d: missing rules_filter_field row", id)
		}
		if err != nil {
			return nil, fmt.Errorf("querying filter_field payload: %w", err)
		}
		return FilterFieldRule{RuleHeader: hdr, FieldKey: key, FieldValue: value}, nil

	default:
		return nil, fmt.Errorf("%w: %d (rule %d)", ErrUnknownRuleType, typ, id)
	}
}
