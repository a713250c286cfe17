package hidden

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/orizon-lang/quasi/internal/store"
)

var (
	// ErrNotExpandable is returned for constructs that offer no expansion:
	// quotations, failed macros and constructs already expanded.
	ErrNotExpandable = errors.New("hidden: construct cannot be expanded")
	// ErrStale is returned when the text no longer holds what a record
	// expects at its position.
	ErrStale = errors.New("hidden: text does not match the recorded expansion")
	// ErrOverlap is returned for a construct that overlaps an expanded
	// construct of the same overlay, such as a macro member of an expanded
	// class.
	ErrOverlap = errors.New("hidden: construct overlaps an expanded construct")
)

// Expandable reports whether c offers an expansion.
func (c *Construct) Expandable() bool {
	return c.Kind == KindMacro && (c.state == HiddenBuilt || c.state == Collapsed)
}

// Expand replaces c in text with the source of its hidden element and
// records the replaced text under a new key. text is the file's text with
// the expansions this overlay made applied.
func (o *Overlay) Expand(ctx context.Context, c *Construct, text string) (string, *store.Record, error) {
	if !c.Expandable() {
		return "", nil, fmt.Errorf("%w: %s construct is %s", ErrNotExpandable, c.Kind, c.state)
	}
	if outer, ok := o.ExpandedAround(c); ok {
		return "", nil, fmt.Errorf("%w: %s is inside %s", ErrOverlap,
			o.file.Source.Describe(c.Node.GetSpan()), o.file.Source.Describe(outer.Node.GetSpan()))
	}
	span := c.Node.GetSpan()
	original := o.file.Source.Text(span)

	records, err := o.store.List(ctx, o.file.Name)
	if err != nil {
		return "", nil, err
	}
	start := span.Start
	for _, r := range byStart(records) {
		if !o.applied[r.Key] {
			continue
		}
		if r.Start >= start {
			break
		}
		start += len(r.Expanded) - len(r.Original)
	}
	end := start + len(original)
	if start < 0 || end > len(text) || text[start:end] != original {
		return "", nil, fmt.Errorf("%w: %s", ErrStale, o.file.Source.Describe(span))
	}

	rec := &store.Record{File: o.file.Name, Class: c.Class, Start: start, Expanded: c.Text, Original: original}
	if err := shift(ctx, o.store, records, start, len(rec.Expanded)-len(original)); err != nil {
		return "", nil, err
	}
	if err := o.store.Put(ctx, rec); err != nil {
		return "", nil, err
	}
	c.key = rec.Key
	c.state = Expanded
	o.applied[rec.Key] = true
	o.logger.Debug("expanded construct", "class", c.Class, "key", rec.Key, "offset", start)
	return text[:start] + rec.Expanded + text[end:], rec, nil
}

// ExpandedAround returns an expanded construct whose declaration overlaps
// the one of c.
func (o *Overlay) ExpandedAround(c *Construct) (*Construct, bool) {
	span := c.Node.GetSpan()
	for _, d := range o.constructs {
		if d == c || d.state != Expanded {
			continue
		}
		if ds := d.Node.GetSpan(); ds.Start < span.End && span.Start < ds.End {
			return d, true
		}
	}
	return nil, false
}

// Undo restores the text an expansion of this overlay's file replaced. The
// construct returns to the collapsed state with a freshly built hidden
// element.
func (o *Overlay) Undo(ctx context.Context, text, key string) (string, error) {
	out, rec, err := Undo(ctx, o.store, text, key)
	if err != nil {
		return "", err
	}
	delete(o.applied, rec.Key)
	for _, c := range o.constructs {
		if c.key != rec.Key {
			continue
		}
		c.key = ""
		c.state = Collapsed
		if err := o.rebuild(c); err != nil {
			return "", err
		}
	}
	return out, nil
}

// Undo reverts the expansion recorded under key in text and deletes the
// record. It needs nothing but the store, so an expansion can be undone in
// a later session.
func Undo(ctx context.Context, s store.Store, text, key string) (string, *store.Record, error) {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return "", nil, err
	}
	if rec.Start < 0 || rec.End() > len(text) || text[rec.Start:rec.End()] != rec.Expanded {
		return "", nil, fmt.Errorf("%w: key %s at offset %d", ErrStale, key, rec.Start)
	}
	out := text[:rec.Start] + rec.Original + text[rec.End():]

	others, err := s.List(ctx, rec.File)
	if err != nil {
		return "", nil, err
	}
	if err := shift(ctx, s, others, rec.Start, len(rec.Original)-len(rec.Expanded)); err != nil {
		return "", nil, err
	}
	if err := s.Delete(ctx, key); err != nil {
		return "", nil, err
	}
	return out, rec, nil
}

// shift moves the records starting after offset by delta.
func shift(ctx context.Context, s store.Store, records []*store.Record, offset, delta int) error {
	if delta == 0 {
		return nil
	}
	for _, r := range records {
		if r.Start <= offset {
			continue
		}
		r.Start += delta
		if err := s.Put(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func byStart(rs []*store.Record) []*store.Record {
	out := append([]*store.Record(nil), rs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
