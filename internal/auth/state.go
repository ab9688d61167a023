package auth

// Phase 表示某个 identity 的绑定阶段。
type Phase int

const (
	// Unbound 尚未有人为该 identity 设置凭证。
	Unbound Phase = iota
	// Bound 已绑定 Digest，之后只能用同一凭证写入。
	Bound
)

func (p Phase) String() string {
	if p == Bound {
		return "bound"
	}
	return "unbound"
}

// State 是单个 identity 的 TOFU 状态：Unbound 或 Bound(Digest)。
type State struct {
	Phase  Phase
	Digest Digest
}

// Credential 表示请求携带的凭证；Present 为 false 时表示未提供。
type Credential struct {
	Present bool
	Secret  string
}

// Outcome 描述一次判定的结果，用于日志与指标。
type Outcome string

const (
	OutcomeAnonymous Outcome = "anonymous"
	OutcomeBound     Outcome = "bound"
	OutcomeVerified  Outcome = "verified"
	OutcomeDenied    Outcome = "denied"
)

// Allowed 返回该结果是否放行。
func (o Outcome) Allowed() bool {
	return o != OutcomeDenied
}

// Transition 是 TOFU 状态机的唯一转移函数：
//
//	Unbound + 无凭证       -> Unbound，放行
//	Unbound + 凭证         -> Bound(hash)，放行
//	Bound(d) + hash == d   -> Bound(d)，放行
//	Bound(d) + 无凭证/不符 -> Bound(d)，拒绝
//
// 回到 Unbound 只能通过显式删除绑定。
func Transition(current State, cred Credential) (State, Outcome) {
	switch current.Phase {
	case Bound:
		if cred.Present && current.Digest.Matches(cred.Secret) {
			return current, OutcomeVerified
		}
		return current, OutcomeDenied
	default:
		if !cred.Present {
			return current, OutcomeAnonymous
		}
		return State{Phase: Bound, Digest: Hash(cred.Secret)}, OutcomeBound
	}
}
