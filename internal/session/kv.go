package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/antoniostano/helpdesk/internal/intake"
)

// KV is the subset of an external key/value store the session store needs.
// Put must expire the key after ttl.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// KVStore keeps JSON-encoded states in an external KV; expiry is delegated to the backend.
type KVStore struct {
	kv     KV
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type KVStoreOption func(*KVStore)

func WithPrefix(prefix string) KVStoreOption {
	return func(s *KVStore) { s.prefix = prefix }
}

func WithTTL(ttl time.Duration) KVStoreOption {
	return func(s *KVStore) { s.ttl = ttl }
}

func NewKVStore(kv KV, opts ...KVStoreOption) *KVStore {
	s := &KVStore{
		kv:     kv,
		prefix: "helpdesk/sessions/",
		ttl:    30 * time.Minute,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KVStore) key(id string) string {
	return s.prefix + id
}

func (s *KVStore) GetOrCreate(ctx context.Context, id string) (intake.State, bool, error) {
	if id != "" {
		data, found, err := s.kv.Get(ctx, s.key(id))
		if err != nil {
			return intake.State{}, false, fmt.Errorf("load session: %w", err)
		}
		if found {
			var st intake.State
			if err := json.Unmarshal(data, &st); err != nil {
				return intake.State{}, false, fmt.Errorf("decode session %q: %w", id, err)
			}
			return st, false, nil
		}
	} else {
		id = uuid.NewString()
	}

	st := intake.NewState(id, s.now())
	if err := s.put(ctx, st); err != nil {
		return intake.State{}, false, err
	}
	return st, true, nil
}

func (s *KVStore) Save(ctx context.Context, state intake.State) error {
	state.UpdatedAt = s.now().UTC()
	return s.put(ctx, state)
}

func (s *KVStore) put(ctx context.Context, state intake.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Put(ctx, s.key(state.SessionID), data, s.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.kv.Close()
}

// EtcdKV implements KV on etcd leases. Each key holds at most one live lease;
// the lease a key held before a write is revoked once the new one is attached.
type EtcdKV struct {
	kv     clientv3.KV
	leases clientv3.Lease
	close  func() error
}

func NewEtcdKV(endpoints []string, dialTimeout time.Duration) (*EtcdKV, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints are required")
	}
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect etcd: %w", err)
	}
	return newEtcdKV(client, client, client.Close), nil
}

func newEtcdKV(kv clientv3.KV, leases clientv3.Lease, closeFn func() error) *EtcdKV {
	return &EtcdKV{kv: kv, leases: leases, close: closeFn}
}

func (e *EtcdKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := e.kv.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

func (e *EtcdKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	lease, err := e.leases.Grant(ctx, seconds)
	if err != nil {
		return fmt.Errorf("grant lease: %w", err)
	}
	resp, err := e.kv.Put(ctx, key, string(value), clientv3.WithLease(lease.ID), clientv3.WithPrevKV())
	if err != nil {
		_, _ = e.leases.Revoke(ctx, lease.ID)
		return err
	}
	if resp.PrevKv != nil {
		if prev := clientv3.LeaseID(resp.PrevKv.Lease); prev != clientv3.NoLease && prev != lease.ID {
			// The key no longer references prev, so revoking it deletes nothing.
			_, _ = e.leases.Revoke(ctx, prev)
		}
	}
	return nil
}

func (e *EtcdKV) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}
