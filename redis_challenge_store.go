package resetflow

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix     = "rfc"
	resetRecordVersionV1   = 1
	resetRecordMaxFieldLen = 65535
)

// redisChallengeStore is the durable alternative to the in-memory store.
// Records carry their own ExpiresAt so the engine's lazy expiry check stays
// authoritative; the Redis TTL is belt and braces.
type redisChallengeStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisChallengeStore returns a challenge store backed by the given Redis
// client. Keys live under the "rfc" prefix, isolated from authorization keys.
func NewRedisChallengeStore(client *redis.Client) ChallengeStore {
	return &redisChallengeStore{
		redis:  client,
		prefix: challengeKeyPrefix,
	}
}

func (s *redisChallengeStore) key(email string) string {
	return s.prefix + ":" + email
}

func (s *redisChallengeStore) Put(ctx context.Context, challenge Challenge, ttl time.Duration) error {
	encoded, err := encodeResetRecord(challenge.Email, challenge.Code, challenge.ExpiresAt)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Until(challenge.ExpiresAt)
	}
	if err := s.redis.Set(ctx, s.key(challenge.Email), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *redisChallengeStore) Get(ctx context.Context, email string) (Challenge, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, ErrRecordNotFound
		}
		return Challenge{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	storedEmail, code, expiresAt, err := decodeResetRecord(data)
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{Email: storedEmail, Code: code, ExpiresAt: expiresAt}, nil
}

func (s *redisChallengeStore) Delete(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// encodeResetRecord serializes an (email, secret, expiry) triple as a
// version-tagged binary record shared by both Redis stores.
func encodeResetRecord(email, secret string, expiresAt time.Time) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(resetRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, expiresAt.UnixNano()); err != nil {
		return nil, err
	}

	for _, field := range []string{email, secret} {
		if len(field) > resetRecordMaxFieldLen {
			return nil, errors.New("reset record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeResetRecord(data []byte) (email, secret string, expiresAt time.Time, err error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return "", "", time.Time{}, err
	}
	if version != resetRecordVersionV1 {
		return "", "", time.Time{}, errors.New("invalid reset record version")
	}

	var expiresNano int64
	if err := binary.Read(reader, binary.BigEndian, &expiresNano); err != nil {
		return "", "", time.Time{}, err
	}

	fields := make([]string, 2)
	for i := range fields {
		var fieldLen uint16
		if err := binary.Read(reader, binary.BigEndian, &fieldLen); err != nil {
			return "", "", time.Time{}, err
		}
		raw := make([]byte, fieldLen)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return "", "", time.Time{}, err
		}
		fields[i] = string(raw)
	}

	return fields[0], fields[1], time.Unix(0, expiresNano), nil
}
