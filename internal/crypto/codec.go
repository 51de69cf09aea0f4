// Package crypto implements the at-rest codec for message text.
//
// Tokens are Fernet tokens (AES-128-CBC + HMAC-SHA256). Every Fernet token starts with the
// version byte 0x80 followed by a big-endian timestamp, which base64url-encodes to "gAAAA".
// That prefix is the only thing used to tell ciphertext from legacy plaintext.
package crypto

import (
	"strings"

	"github.com/fernet/fernet-go"
	"go.uber.org/zap"
)

// CiphertextTag is the literal prefix of every stored ciphertext token.
const CiphertextTag = "gAAAA"

// FallbackKey replaces a missing or malformed configured key so the service can still start.
// SECURITY: anything encrypted under this key is readable by anyone holding the source code.
const FallbackKey = "9YeKt6gEQh8gYBlLutD_I6C1VezJILglDRcDDm0-nmE="

const placeholderPrefixLen = 10

// Codec is safe for concurrent use.
type Codec struct {
	primary   *fernet.Key
	keys      []*fernet.Key
	fallback  bool
	onFailure func()
	log       *zap.Logger
}

type Option func(*Codec)

// WithDecryptFailureHook registers a callback invoked whenever a tagged token cannot be decrypted.
func WithDecryptFailureHook(fn func()) Option {
	return func(c *Codec) { c.onFailure = fn }
}

// NewCodec resolves the primary key and any previous (decrypt-only) keys. It never fails:
// an unusable primary key is replaced by FallbackKey and unusable previous keys are skipped.
func NewCodec(key string, previous []string, log *zap.Logger, opts ...Option) *Codec {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Codec{log: log}

	primary, err := fernet.DecodeKey(strings.TrimSpace(key))
	if key == "" || err != nil {
		log.Warn("message encryption key missing or malformed, using built-in fallback key; stored messages are NOT confidential",
			zap.Bool("configured", key != ""))
		primary = fernet.MustDecodeKeys(FallbackKey)[0]
		c.fallback = true
	}
	c.primary = primary
	c.keys = append(c.keys, primary)

	for i, p := range previous {
		k, err := fernet.DecodeKey(strings.TrimSpace(p))
		if err != nil {
			log.Warn("skipping malformed previous encryption key", zap.Int("index", i), zap.Error(err))
			continue
		}
		c.keys = append(c.keys, k)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UsingFallbackKey reports whether the built-in key replaced the configured one.
func (c *Codec) UsingFallbackKey() bool {
	return c.fallback
}

// Encrypt returns "" for empty input and returns already-tagged input unchanged, so persisting
// the same content twice never double-encrypts it.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if IsEncrypted(plaintext) {
		return plaintext, nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.primary)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

// Decrypt never returns an error. Untagged input is legacy plaintext and comes back as is;
// tagged input that fails verification under every known key becomes a visible placeholder.
func (c *Codec) Decrypt(token string) string {
	if token == "" {
		return ""
	}
	if !IsEncrypted(token) {
		return token
	}
	// negative ttl: tokens never expire
	msg := fernet.VerifyAndDecrypt([]byte(token), -1, c.keys)
	if msg == nil {
		if c.onFailure != nil {
			c.onFailure()
		}
		c.log.Debug("undecryptable message token", zap.String("prefix", truncate(token)))
		return Placeholder(token)
	}
	return string(msg)
}

// Placeholder is what readers see in place of a token that cannot be decrypted.
func Placeholder(token string) string {
	return "[Encrypted Message: " + truncate(token) + "...]"
}

func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, CiphertextTag)
}

// GenerateKey returns a new random key in the encoding NewCodec expects.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", err
	}
	return k.Encode(), nil
}

func truncate(s string) string {
	if len(s) <= placeholderPrefixLen {
		return s
	}
	return s[:placeholderPrefixLen]
}
