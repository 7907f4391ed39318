// Package runstore keeps the spot measurements of past runs in a badger
// database, so sweeps can be compared and plotted later without retracing.
package runstore

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/xerrors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Key prefixes that denote different tables in the key-value store.
const (
	KeyTypeResult uint32 = 0
)

var ErrNotFound = xerrors.New("no result recorded")

// Result is the spot measured for one bundle radius of one lens system.
type Result struct {
	System string
	Radius float64

	Focus             float64
	Rays              int
	Active            int
	RMS               float64
	DiffractionLimits []float64

	Recorded time.Time
}

// ResultKeyPrefix selects every result of system.  The name is length
// prefixed so one system's name being a prefix of another's does not merge
// their ranges.
func ResultKeyPrefix(system string) []byte {
	key := make([]byte, 6+len(system))
	binary.BigEndian.PutUint32(key[0:4], KeyTypeResult)
	binary.BigEndian.PutUint16(key[4:6], uint16(len(system)))
	copy(key[6:], system)
	return key
}

// ResultKey orders results of a system by radius.  Radii are non-negative, so
// their IEEE bits sort the same way as the values.
func ResultKey(system string, radius float64) []byte {
	prefix := ResultKeyPrefix(system)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], math.Float64bits(radius))
	return key
}

func DecodeResultKey(key []byte) (system string, radius float64, err error) {
	if len(key) < 14 {
		return "", 0, xerrors.Errorf("key has wrong length; got %d, want at least 14", len(key))
	}
	if t := binary.BigEndian.Uint32(key[0:4]); t != KeyTypeResult {
		return "", 0, xerrors.Errorf("key has type %d, want %d", t, KeyTypeResult)
	}
	n := int(binary.BigEndian.Uint16(key[4:6]))
	if len(key) != 14+n {
		return "", 0, xerrors.Errorf("key has wrong length; got %d, want %d", len(key), 14+n)
	}
	system = string(key[6 : 6+n])
	radius = math.Float64frombits(binary.BigEndian.Uint64(key[6+n:]))
	return system, radius, nil
}

type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	glog.Errorf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	glog.Warningf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	glog.V(1).Infof("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	glog.V(2).Infof("badger: "+format, args...)
}

type Store struct {
	DB *badger.DB
}

// Open opens the database in dataDir, creating it if needed.
func Open(dataDir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(badgerLogger{}))
	if err != nil {
		return nil, xerrors.Errorf("while opening badger kv dir: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if err := s.DB.Close(); err != nil {
		return xerrors.Errorf("while closing database: %w", err)
	}
	return nil
}

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	for {
		err := s.DB.Update(fn)
		if xerrors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}

// PutResult records r, replacing any earlier result for the same system and
// radius.  A zero Recorded time is set to now.
func (s *Store) PutResult(ctx context.Context, r *Result) error {
	_, span := otel.Tracer("lenstrace/runstore").Start(ctx, "Store.PutResult")
	defer span.End()
	span.SetAttributes(attribute.String("lenstrace.system", r.System), attribute.Float64("lenstrace.radius", r.Radius))

	if r.System == "" || len(r.System) > math.MaxUint16 {
		return xerrors.Errorf("system name must be 1 to %d bytes, got %d", math.MaxUint16, len(r.System))
	}
	if r.Radius < 0 || math.IsNaN(r.Radius) {
		return xerrors.Errorf("radius must be non-negative, got %v", r.Radius)
	}
	if r.Recorded.IsZero() {
		r.Recorded = time.Now()
	}

	val, err := encodeResult(r)
	if err != nil {
		return xerrors.Errorf("while encoding result: %w", err)
	}

	key := ResultKey(r.System, r.Radius)
	err = s.update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		span.RecordError(err)
		return xerrors.Errorf("while writing result for %q at radius %v: %w", r.System, r.Radius, err)
	}
	return nil
}

// GetResult returns the result for system at radius, or ErrNotFound.
func (s *Store) GetResult(ctx context.Context, system string, radius float64) (*Result, error) {
	_, span := otel.Tracer("lenstrace/runstore").Start(ctx, "Store.GetResult")
	defer span.End()

	var r *Result
	err := s.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ResultKey(system, radius))
		if xerrors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		r, err = decodeResult(system, radius, val)
		return err
	})
	if err != nil {
		return nil, xerrors.Errorf("while reading result for %q at radius %v: %w", system, radius, err)
	}
	return r, nil
}

// ListResults returns every result of system ordered by radius.
func (s *Store) ListResults(ctx context.Context, system string) ([]*Result, error) {
	_, span := otel.Tracer("lenstrace/runstore").Start(ctx, "Store.ListResults")
	defer span.End()

	var results []*Result
	err := s.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = ResultKeyPrefix(system)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			keySystem, radius, err := DecodeResultKey(item.KeyCopy(nil))
			if err != nil {
				return xerrors.Errorf("while decoding result key: %w", err)
			}
			if keySystem != system {
				return xerrors.Errorf("result key for %q found under %q", keySystem, system)
			}

			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			r, err := decodeResult(system, radius, val)
			if err != nil {
				return err
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("while listing results for %q: %w", system, err)
	}

	span.SetAttributes(attribute.Int("lenstrace.results", len(results)))
	return results, nil
}

func encodeResult(r *Result) ([]byte, error) {
	recorded, err := protojson.Marshal(timestamppb.New(r.Recorded))
	if err != nil {
		return nil, xerrors.Errorf("while encoding timestamp: %w", err)
	}

	limits := make([]interface{}, len(r.DiffractionLimits))
	for i, l := range r.DiffractionLimits {
		limits[i] = l
	}

	st, err := structpb.NewStruct(map[string]interface{}{
		"focus":             r.Focus,
		"rays":              r.Rays,
		"active":            r.Active,
		"rms":               r.RMS,
		"diffractionLimits": limits,
		"recorded":          string(recorded),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func decodeResult(system string, radius float64, val []byte) (*Result, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(val, st); err != nil {
		return nil, xerrors.Errorf("while unmarshalling result: %w", err)
	}
	fields := st.GetFields()

	ts := &timestamppb.Timestamp{}
	if err := protojson.Unmarshal([]byte(fields["recorded"].GetStringValue()), ts); err != nil {
		return nil, xerrors.Errorf("while decoding timestamp: %w", err)
	}

	r := &Result{
		System:   system,
		Radius:   radius,
		Focus:    fields["focus"].GetNumberValue(),
		Rays:     int(fields["rays"].GetNumberValue()),
		Active:   int(fields["active"].GetNumberValue()),
		RMS:      fields["rms"].GetNumberValue(),
		Recorded: ts.AsTime(),
	}
	for _, v := range fields["diffractionLimits"].GetListValue().GetValues() {
		r.DiffractionLimits = append(r.DiffractionLimits, v.GetNumberValue())
	}
	return r, nil
}
