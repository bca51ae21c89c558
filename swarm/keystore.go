package swarm

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

const (
	identityPrefix = "identity:"
	identityKey    = identityPrefix + "node"
)

// Identity describes a stored key without exposing it.
type Identity struct {
	Key      string
	KeyType  string
	PeerID   string
	MemberID string
}

// OpenStore opens the badger database holding the node identity.
// An empty path gives an in-memory store, the identity then changes on every start.
func OpenStore(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	return badger.Open(opts.WithLoggingLevel(badger.WARNING))
}

// Keystore persists the private key of the node so that the peer id,
// and therefore the member id other peers see, survives restarts.
type Keystore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewKeystore(db *badger.DB, log *slog.Logger) *Keystore {
	return &Keystore{db: db, log: log}
}

// LoadOrCreate returns the stored identity, generating and storing an ed25519 key the first time.
func (k *Keystore) LoadOrCreate() (crypto.PrivKey, error) {
	raw, err := k.load()
	if err != nil {
		return nil, err
	}
	if raw != nil {
		priv, err := crypto.UnmarshalPrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal node identity: %w", err)
		}
		return priv, nil
	}

	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate node identity: %w", err)
	}
	bytes, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node identity: %w", err)
	}
	err = k.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(identityKey), bytes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store node identity: %w", err)
	}
	k.log.Info("New node identity generated")
	return priv, nil
}

func (k *Keystore) load() ([]byte, error) {
	var raw []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(identityKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read node identity: %w", err)
	}
	return raw, nil
}

// List scans every stored identity.
func (k *Keystore) List() ([]Identity, error) {
	var identities []Identity
	err := k.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(identityPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(v []byte) error {
				identity, err := describe(key, v)
				if err != nil {
					k.log.Warn("Skipping unreadable identity", "key", key, "error", err)
					return nil
				}
				identities = append(identities, identity)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	return identities, nil
}

func describe(key string, raw []byte) (Identity, error) {
	priv, err := crypto.UnmarshalPrivateKey(raw)
	if err != nil {
		return Identity{}, err
	}
	id, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Key:      key,
		KeyType:  priv.Type().String(),
		PeerID:   id.String(),
		MemberID: memberID(id.String()),
	}, nil
}
