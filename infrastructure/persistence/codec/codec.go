// Package codec implements the binary store format.
//
// A store file is a fixed 24-byte header followed by a msgpack payload:
//
//	magic "TGRF" | version u16 | flags u16 | payload length u64 | xxhash64(payload) u64
//
// All integers are big-endian. The payload holds thoughts, tags and forward
// references sorted by id, so equal graphs encode to equal bytes. The
// reverse index and tag usage are rebuilt on load.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	pkgerrors "thoughtgraph/pkg/errors"
)

const (
	// Magic identifies a thoughtgraph store
	Magic = "TGRF"
	// FormatVersion is the only version this build reads and writes
	FormatVersion uint16 = 1
	// HeaderSize is the fixed header length in bytes
	HeaderSize = 24
)

type payload struct {
	Thoughts   []thoughtRecord   `msgpack:"thoughts"`
	Tags       []tagRecord       `msgpack:"tags"`
	References []referenceRecord `msgpack:"references"`
}

type thoughtRecord struct {
	ID        string   `msgpack:"id"`
	Title     string   `msgpack:"title"`
	Content   string   `msgpack:"content"`
	Tags      []string `msgpack:"tags"`
	CreatedAt int64    `msgpack:"created_at"`
	UpdatedAt int64    `msgpack:"updated_at"`
}

type tagRecord struct {
	ID          string `msgpack:"id"`
	Description string `msgpack:"description"`
	CreatedAt   int64  `msgpack:"created_at"`
	UpdatedAt   int64  `msgpack:"updated_at"`
}

type referenceRecord struct {
	From      string `msgpack:"from"`
	To        string `msgpack:"to"`
	Notes     string `msgpack:"notes"`
	Auto      bool   `msgpack:"auto"`
	CreatedAt int64  `msgpack:"created_at"`
}

// Encode serialises a snapshot into the store format
func Encode(s aggregates.Snapshot) ([]byte, error) {
	p := toPayload(s)
	body, err := msgpack.Marshal(&p)
	if err != nil {
		return nil, pkgerrors.NewInternalError("encode store payload").WithCause(err)
	}

	buf := make([]byte, HeaderSize, HeaderSize+len(body))
	copy(buf[0:4], Magic)
	binary.BigEndian.PutUint16(buf[4:6], FormatVersion)
	binary.BigEndian.PutUint16(buf[6:8], 0)
	binary.BigEndian.PutUint64(buf[8:16], uint64(len(body)))
	binary.BigEndian.PutUint64(buf[16:24], xxhash.Sum64(body))
	return append(buf, body...), nil
}

// Decode parses data produced by Encode. Nothing is returned unless the
// header, the checksum and the whole payload are valid.
func Decode(data []byte) (aggregates.Snapshot, error) {
	if len(data) < HeaderSize {
		return aggregates.Snapshot{}, pkgerrors.NewCorruptDataError(
			fmt.Sprintf("store is %d bytes, shorter than the %d byte header", len(data), HeaderSize), nil)
	}
	if !bytes.Equal(data[0:4], []byte(Magic)) {
		return aggregates.Snapshot{}, pkgerrors.NewCorruptDataError("not a thoughtgraph store (bad magic)", nil)
	}
	if v := binary.BigEndian.Uint16(data[4:6]); v != FormatVersion {
		return aggregates.Snapshot{}, pkgerrors.NewVersionMismatchError(int(v), int(FormatVersion))
	}
	if flags := binary.BigEndian.Uint16(data[6:8]); flags != 0 {
		return aggregates.Snapshot{}, pkgerrors.NewCorruptDataError(fmt.Sprintf("unknown header flags %#04x", flags), nil)
	}

	body := data[HeaderSize:]
	if n := binary.BigEndian.Uint64(data[8:16]); n != uint64(len(body)) {
		return aggregates.Snapshot{}, pkgerrors.NewCorruptDataError(
			fmt.Sprintf("payload length is %d, header says %d", len(body), n), nil)
	}
	if sum := binary.BigEndian.Uint64(data[16:24]); sum != xxhash.Sum64(body) {
		return aggregates.Snapshot{}, pkgerrors.NewCorruptDataError("payload checksum mismatch", nil)
	}

	var p payload
	if err := msgpack.Unmarshal(body, &p); err != nil {
		return aggregates.Snapshot{}, pkgerrors.NewCorruptDataError("malformed payload", err)
	}
	return fromPayload(p), nil
}

// EncodeGraph serialises a graph
func EncodeGraph(g *aggregates.Graph) ([]byte, error) {
	return Encode(g.Snapshot())
}

// DecodeGraph parses data and rebuilds the graph with its derived indices
func DecodeGraph(data []byte, cfg *config.DomainConfig, opts ...aggregates.Option) (*aggregates.Graph, error) {
	s, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return aggregates.Restore(s, cfg, opts...)
}

func toPayload(s aggregates.Snapshot) payload {
	p := payload{
		Thoughts:   make([]thoughtRecord, 0, len(s.Thoughts)),
		Tags:       make([]tagRecord, 0, len(s.Tags)),
		References: make([]referenceRecord, 0, len(s.References)),
	}
	for _, t := range s.Thoughts {
		tags := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			tags[i] = tag.String()
		}
		sort.Strings(tags)
		p.Thoughts = append(p.Thoughts, thoughtRecord{
			ID:        t.ID.String(),
			Title:     t.Title,
			Content:   t.Content,
			Tags:      tags,
			CreatedAt: unixNano(t.CreatedAt),
			UpdatedAt: unixNano(t.UpdatedAt),
		})
	}
	for _, t := range s.Tags {
		p.Tags = append(p.Tags, tagRecord{
			ID:          t.ID.String(),
			Description: t.Description,
			CreatedAt:   unixNano(t.CreatedAt),
			UpdatedAt:   unixNano(t.UpdatedAt),
		})
	}
	for _, r := range s.References {
		p.References = append(p.References, referenceRecord{
			From:      r.From.String(),
			To:        r.To.String(),
			Notes:     r.Notes,
			Auto:      r.Auto,
			CreatedAt: unixNano(r.CreatedAt),
		})
	}

	sort.Slice(p.Thoughts, func(i, j int) bool { return p.Thoughts[i].ID < p.Thoughts[j].ID })
	sort.Slice(p.Tags, func(i, j int) bool { return p.Tags[i].ID < p.Tags[j].ID })
	sort.Slice(p.References, func(i, j int) bool {
		if p.References[i].From != p.References[j].From {
			return p.References[i].From < p.References[j].From
		}
		return p.References[i].To < p.References[j].To
	})
	return p
}

func fromPayload(p payload) aggregates.Snapshot {
	s := aggregates.Snapshot{
		Thoughts:   make([]entities.ThoughtRecord, 0, len(p.Thoughts)),
		Tags:       make([]entities.TagRecord, 0, len(p.Tags)),
		References: make([]entities.Reference, 0, len(p.References)),
	}
	for _, t := range p.Thoughts {
		tags := make([]valueobjects.TagID, len(t.Tags))
		for i, tag := range t.Tags {
			tags[i] = valueobjects.TagID(tag)
		}
		s.Thoughts = append(s.Thoughts, entities.ThoughtRecord{
			ID:        valueobjects.ThoughtID(t.ID),
			Title:     t.Title,
			Content:   t.Content,
			Tags:      tags,
			CreatedAt: fromUnixNano(t.CreatedAt),
			UpdatedAt: fromUnixNano(t.UpdatedAt),
		})
	}
	for _, t := range p.Tags {
		s.Tags = append(s.Tags, entities.TagRecord{
			ID:          valueobjects.TagID(t.ID),
			Description: t.Description,
			CreatedAt:   fromUnixNano(t.CreatedAt),
			UpdatedAt:   fromUnixNano(t.UpdatedAt),
		})
	}
	for _, r := range p.References {
		s.References = append(s.References, entities.Reference{
			From:      valueobjects.ThoughtID(r.From),
			To:        valueobjects.ThoughtID(r.To),
			Notes:     r.Notes,
			Auto:      r.Auto,
			CreatedAt: fromUnixNano(r.CreatedAt),
		})
	}
	return s
}

// unixNano maps the zero time to 0 so it survives a round trip
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
