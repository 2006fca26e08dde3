package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdFake models the lease bookkeeping of one etcd member. Unimplemented
// clientv3 methods panic through the nil embedded interfaces.
type etcdFake struct {
	mu      sync.Mutex
	nextID  clientv3.LeaseID
	granted clientv3.LeaseID
	live    map[clientv3.LeaseID]bool
	keys    map[string]*mvccpb.KeyValue
	putErr  error
}

func newEtcdFake() *etcdFake {
	return &etcdFake{live: map[clientv3.LeaseID]bool{}, keys: map[string]*mvccpb.KeyValue{}}
}

type fakeLeases struct {
	clientv3.Lease
	f *etcdFake
}

func (l fakeLeases) Grant(_ context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error) {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	l.f.nextID++
	l.f.granted = l.f.nextID
	l.f.live[l.f.nextID] = true
	return &clientv3.LeaseGrantResponse{ID: l.f.nextID, TTL: ttl}, nil
}

func (l fakeLeases) Revoke(_ context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error) {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	delete(l.f.live, id)
	for k, kv := range l.f.keys {
		if clientv3.LeaseID(kv.Lease) == id {
			delete(l.f.keys, k)
		}
	}
	return &clientv3.LeaseRevokeResponse{}, nil
}

type fakeKV struct {
	clientv3.KV
	f *etcdFake
}

func (k fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	k.f.mu.Lock()
	defer k.f.mu.Unlock()
	if k.f.putErr != nil {
		return nil, k.f.putErr
	}
	prev := k.f.keys[key]
	k.f.keys[key] = &mvccpb.KeyValue{Key: []byte(key), Value: []byte(val), Lease: int64(k.f.granted)}
	return &clientv3.PutResponse{PrevKv: prev}, nil
}

func (k fakeKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	k.f.mu.Lock()
	defer k.f.mu.Unlock()
	resp := &clientv3.GetResponse{}
	if kv, ok := k.f.keys[key]; ok {
		resp.Kvs = []*mvccpb.KeyValue{kv}
	}
	return resp, nil
}

func TestEtcdKVKeepsOneLeasePerKey(t *testing.T) {
	ctx := context.Background()
	f := newEtcdFake()
	kv := newEtcdKV(fakeKV{f: f}, fakeLeases{f: f}, nil)

	for i := 0; i < 5; i++ {
		if err := kv.Put(ctx, "sessions/a", []byte(`{"n":1}`), time.Minute); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	if err := kv.Put(ctx, "sessions/b", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if got := len(f.live); got != 2 {
		t.Fatalf("live leases = %d, want 2", got)
	}
	value, found, err := kv.Get(ctx, "sessions/a")
	if err != nil || !found || string(value) != `{"n":1}` {
		t.Fatalf("Get() = %q, %v, %v", value, found, err)
	}
	if lease := clientv3.LeaseID(f.keys["sessions/a"].Lease); !f.live[lease] {
		t.Fatalf("key references revoked lease %d", lease)
	}
}

func TestEtcdKVRevokesLeaseWhenPutFails(t *testing.T) {
	f := newEtcdFake()
	f.putErr = errors.New("etcdserver: request timed out")
	kv := newEtcdKV(fakeKV{f: f}, fakeLeases{f: f}, nil)

	if err := kv.Put(context.Background(), "sessions/a", []byte(`{}`), time.Minute); err == nil {
		t.Fatalf("Put() error = nil, want backend error")
	}
	if got := len(f.live); got != 0 {
		t.Fatalf("live leases = %d, want 0", got)
	}
}

func TestEtcdKVBacksKVStore(t *testing.T) {
	ctx := context.Background()
	f := newEtcdFake()
	s := NewKVStore(newEtcdKV(fakeKV{f: f}, fakeLeases{f: f}, nil), WithTTL(10*time.Minute))

	st, created, err := s.GetOrCreate(ctx, "")
	if err != nil || !created {
		t.Fatalf("GetOrCreate() created=%v err=%v", created, err)
	}
	st.Location = "Oak Lane"
	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, st); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, created, err := s.GetOrCreate(ctx, st.SessionID)
	if err != nil || created || got.Location != "Oak Lane" {
		t.Fatalf("GetOrCreate() = %+v created=%v err=%v", got, created, err)
	}
	if len(f.live) != 1 {
		t.Fatalf("live leases = %d, want 1", len(f.live))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
