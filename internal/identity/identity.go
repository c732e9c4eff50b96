package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/thisme/internal/keys"
	"github.com/roach88/thisme/internal/secret"
	"github.com/roach88/thisme/internal/store"
)

// ErrInvalidCredentials is the only cause Load reports for a missing
// username or a wrong password, so callers cannot tell which one happened
// from the message.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrLocked is returned by operations that need the private key after
// Lock has wiped it.
var ErrLocked = errors.New("identity is locked")

// Manager creates and unlocks identities against a store.
type Manager struct {
	Store store.Store

	// KDF sets Argon2id cost. The zero value uses keys.DefaultKDFParams.
	// Changing it makes existing identities unloadable.
	KDF keys.KDFParams

	// Logger receives lifecycle events. Nil uses slog.Default().
	Logger *slog.Logger

	// Rand supplies seed and nonce bytes. Nil uses crypto/rand.
	Rand io.Reader
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *Manager) sealer() keys.Sealer {
	return keys.Sealer{Rand: m.Rand}
}

// kdfParams returns the effective KDF parameters, or a KindValidation
// error for a partial configuration Argon2 cannot run with.
func (m *Manager) kdfParams(op string) (keys.KDFParams, error) {
	p := m.KDF.OrDefault()
	if err := p.Validate(); err != nil {
		return p, store.Wrap(store.KindValidation, op, err)
	}
	return p, nil
}

// deriveKey runs the KDF with validated parameters.
func (m *Manager) deriveKey(op, username, password string) ([keys.KeySize]byte, error) {
	p, err := m.kdfParams(op)
	if err != nil {
		return [keys.KeySize]byte{}, err
	}
	key, err := keys.DeriveKey(username, password, p)
	if err != nil {
		return key, store.Wrap(store.KindValidation, op, err)
	}
	return key, nil
}

// seal encrypts the base64 form of kp's seed under key.
func (m *Manager) seal(key [keys.KeySize]byte, kp keys.KeyPair) (string, error) {
	encoded, err := kp.EncodeSeed()
	if err != nil {
		return "", err
	}
	defer encoded.Close()
	return m.sealer().SealString(key, encoded.Bytes())
}

// Create registers a new identity and returns it unlocked.
//
// Input is validated before any key generation or I/O. The store's unique
// username constraint rejects a concurrent duplicate even after the
// existence check passes.
func (m *Manager) Create(ctx context.Context, username, password string) (*Identity, error) {
	const op = "create identity"

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if _, err := m.kdfParams(op); err != nil {
		return nil, err
	}

	_, err := m.Store.LoadKeys(ctx, username)
	switch {
	case err == nil:
		return nil, store.Errorf(store.KindAlreadyExists, op, "identity %q already exists", username)
	case !store.IsNotFound(err):
		return nil, err
	}

	kp, err := keys.GenerateKeyPair(m.Rand)
	if err != nil {
		return nil, store.Wrap(store.KindEncryptionFailed, op, err)
	}

	key, err := m.deriveKey(op, username, password)
	if err != nil {
		kp.Zero()
		return nil, err
	}
	defer secret.Zero(key[:])

	sealed, err := m.seal(key, kp)
	if err != nil {
		kp.Zero()
		return nil, store.Wrap(store.KindEncryptionFailed, op, err)
	}

	if err := m.Store.CreateIdentity(ctx, username, kp.PublicKeyBase64(), sealed); err != nil {
		kp.Zero()
		return nil, err
	}

	stored, err := m.Store.LoadKeys(ctx, username)
	if err != nil {
		kp.Zero()
		return nil, err
	}

	id := newIdentity(m, username, stored.CreatedAt, kp)
	m.logger().Info("identity created", "username", username)
	return id, nil
}

// Load unlocks an existing identity.
//
// A missing username fails with KindNotFound and a wrong password with
// KindAuthenticationFailed. Both wrap ErrInvalidCredentials and render the
// same message. The KDF runs on both paths.
func (m *Manager) Load(ctx context.Context, username, password string) (*Identity, error) {
	const op = "load identity"

	key, err := m.deriveKey(op, username, password)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(key[:])

	stored, err := m.Store.LoadKeys(ctx, username)
	if store.IsNotFound(err) {
		m.logger().Debug("identity load rejected", "username", username)
		return nil, &store.Error{Kind: store.KindNotFound, Op: op, Err: ErrInvalidCredentials}
	}
	if err != nil {
		return nil, err
	}

	seed, err := keys.OpenString(key, stored.EncryptedPrivateKey)
	if errors.Is(err, keys.ErrAuthenticationFailed) {
		m.logger().Debug("identity load rejected", "username", username)
		return nil, &store.Error{Kind: store.KindAuthenticationFailed, Op: op, Err: ErrInvalidCredentials}
	}
	if err != nil {
		return nil, store.Wrap(store.KindEncryptionFailed, op, err)
	}

	kp, err := keys.KeyPairFromEncodedSeed(seed.Bytes())
	seed.Close()
	if err != nil {
		return nil, store.Wrap(store.KindSerialization, op, err)
	}
	if !kp.MatchesPublicKey(stored.PublicKey) {
		kp.Zero()
		return nil, &store.Error{Kind: store.KindAuthenticationFailed, Op: op, Err: ErrInvalidCredentials}
	}

	m.logger().Debug("identity unlocked", "username", username)
	return newIdentity(m, username, stored.CreatedAt, kp), nil
}

// List returns public data for every identity.
func (m *Manager) List(ctx context.Context) ([]IdentitySummary, error) {
	return m.Store.ListIdentities(ctx)
}

// PublicKey returns the base64 public key for username without unlocking.
func (m *Manager) PublicKey(ctx context.Context, username string) (string, error) {
	stored, err := m.Store.LoadKeys(ctx, username)
	if err != nil {
		return "", err
	}
	return stored.PublicKey, nil
}

// Identity is an identity loaded into memory. It holds the signing seed
// until Lock is called. Methods are safe for concurrent use.
type Identity struct {
	mgr       *Manager
	username  string
	publicKey string
	contextID string
	createdAt string

	mu sync.Mutex
	kp keys.KeyPair
}

func newIdentity(m *Manager, username, createdAt string, kp keys.KeyPair) *Identity {
	return &Identity{
		mgr:       m,
		username:  username,
		publicKey: kp.PublicKeyBase64(),
		contextID: keys.DeriveContext(kp.Seed()),
		createdAt: createdAt,
		kp:        kp,
	}
}

// Username returns the identity's handle.
func (id *Identity) Username() string { return id.username }

// PublicKey returns the base64 Ed25519 public key.
func (id *Identity) PublicKey() string { return id.publicKey }

// ContextID returns the primary context id derived from the signing seed.
// It stays available after Lock.
func (id *Identity) ContextID() string { return id.contextID }

// CreatedAt returns the stored creation timestamp.
func (id *Identity) CreatedAt() string { return id.createdAt }

// Unlocked reports whether the signing seed is still in memory.
func (id *Identity) Unlocked() bool {
	id.mu.Lock()
	defer id.mu.Unlock()
	return !id.kp.Zeroed()
}

// Lock wipes the signing seed. Calling it twice is harmless.
func (id *Identity) Lock() {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.kp.Zero()
}

// Sign signs msg with the identity's private key.
func (id *Identity) Sign(msg []byte) ([]byte, error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.kp.Zeroed() {
		return nil, ErrLocked
	}
	return id.kp.Sign(msg)
}

// SharedContext derives a context id from this identity's seed and a
// secret held by another party. Both parties must pass their inputs in the
// same order, so the seed comes first.
func (id *Identity) SharedContext(other []byte) (string, error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.kp.Zeroed() {
		return "", ErrLocked
	}
	return keys.DeriveSharedContext(id.kp.Seed(), other), nil
}

// ChangePassword re-seals the same seed under newPassword. oldPassword
// must open the currently stored blob. The store replaces the blob in one
// statement, so a failed write leaves the old password working.
//
// The context id does not change.
func (id *Identity) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	const op = "change password"

	id.mu.Lock()
	defer id.mu.Unlock()

	if id.kp.Zeroed() {
		return ErrLocked
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	m := id.mgr
	stored, err := m.Store.LoadKeys(ctx, id.username)
	if err != nil {
		return err
	}

	oldKey, err := m.deriveKey(op, id.username, oldPassword)
	if err != nil {
		return err
	}
	defer secret.Zero(oldKey[:])
	err = id.checkSealedSeed(oldKey, stored.EncryptedPrivateKey)
	if errors.Is(err, keys.ErrAuthenticationFailed) {
		return &store.Error{Kind: store.KindAuthenticationFailed, Op: op, Err: ErrInvalidCredentials}
	}
	if err != nil {
		return store.Wrap(store.KindEncryptionFailed, op, err)
	}

	newKey, err := m.deriveKey(op, id.username, newPassword)
	if err != nil {
		return err
	}
	defer secret.Zero(newKey[:])
	sealed, err := m.seal(newKey, id.kp)
	if err != nil {
		return store.Wrap(store.KindEncryptionFailed, op, err)
	}

	if err := m.Store.UpdateEncryptedPrivate(ctx, id.username, sealed); err != nil {
		return err
	}
	m.logger().Info("identity password changed", "username", id.username)
	return nil
}

// checkSealedSeed opens the stored blob with key and checks that it holds
// this identity's seed. Caller holds id.mu.
func (id *Identity) checkSealedSeed(key [keys.KeySize]byte, sealed string) error {
	encoded, err := keys.OpenString(key, sealed)
	if err != nil {
		return err
	}
	defer encoded.Close()

	kp, err := keys.KeyPairFromEncodedSeed(encoded.Bytes())
	if err != nil {
		return keys.ErrAuthenticationFailed
	}
	defer kp.Zero()
	if !id.kp.SeedEqual(kp.Seed()) {
		return keys.ErrAuthenticationFailed
	}
	return nil
}
