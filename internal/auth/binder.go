package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/participant-hub/participant-hub/internal/logging"
	"github.com/participant-hub/participant-hub/internal/metrics"
)

// ErrUnauthorized 表示凭证缺失或不匹配。handler 原样返回该错误，
// 只有请求管线会把它翻译成 401。
var ErrUnauthorized = errors.New("unauthorized")

// Binder 负责 TOFU 判定：读取当前状态、执行 Transition、在首次绑定时持久化摘要。
type Binder struct {
	keys    DigestStore
	logger  *logrus.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

// NewBinder 构建 Binder；logger 为空时丢弃日志，metrics 可以为 nil。
func NewBinder(keys DigestStore, logger *logrus.Logger, m *metrics.Metrics) *Binder {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Binder{
		keys:    keys,
		logger:  logger,
		metrics: m,
		locks:   make(map[string]*identityLock),
	}
}

// Authorize 判定 identity 是否允许写入。拒绝时返回 (false, nil)；
// 只有读取或持久化摘要失败时才返回 error。
func (b *Binder) Authorize(identity string, cred Credential) (bool, error) {
	outcome, err := b.decide(identity, cred)
	if err != nil {
		return false, err
	}
	b.metrics.AuthDecision(string(outcome))
	b.logger.WithFields(logrus.Fields{
		"action":   "authorize",
		"identity": identity,
		"outcome":  string(outcome),
	}).Debug("凭证判定完成")
	return outcome.Allowed(), nil
}

func (b *Binder) decide(identity string, cred Credential) (Outcome, error) {
	unlock := b.lock(identity)
	defer unlock()

	current, err := b.state(identity)
	if err != nil {
		return "", err
	}

	next, outcome := Transition(current, cred)
	if current.Phase == Unbound && next.Phase == Bound {
		err := b.keys.Bind(identity, next.Digest)
		if errors.Is(err, ErrAlreadyBound) {
			// 其它进程抢先绑定，按已绑定状态重新判定。
			current, err = b.state(identity)
			if err != nil {
				return "", err
			}
			_, outcome = Transition(current, cred)
			return outcome, nil
		}
		if err != nil {
			return "", fmt.Errorf("bind credential for %s: %w", identity, err)
		}
	}
	return outcome, nil
}

func (b *Binder) state(identity string) (State, error) {
	digest, ok, err := b.keys.Load(identity)
	if err != nil {
		return State{}, fmt.Errorf("load credential for %s: %w", identity, err)
	}
	if !ok {
		return State{Phase: Unbound}, nil
	}
	return State{Phase: Bound, Digest: digest}, nil
}

// Ensure 解析 Authorization 头并判定；拒绝时返回包裹 ErrUnauthorized 的错误。
func (b *Binder) Ensure(identity, authorizationHeader string) error {
	allowed, err := b.Authorize(identity, ParseBasic(authorizationHeader))
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrUnauthorized, identity)
	}
	return nil
}

// Forget 删除 identity 的绑定，幂等。
func (b *Binder) Forget(identity string) error {
	unlock := b.lock(identity)
	defer unlock()

	if err := b.keys.Remove(identity); err != nil {
		return fmt.Errorf("remove credential for %s: %w", identity, err)
	}
	return nil
}

func (b *Binder) lock(identity string) func() {
	b.mu.Lock()
	lock := b.locks[identity]
	if lock == nil {
		lock = &identityLock{}
		b.locks[identity] = lock
	}
	lock.refs++
	b.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		b.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(b.locks, identity)
		}
		b.mu.Unlock()
	}
}
