package runner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/nativesend/types"
)

const recipient = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

type fakeAbility struct {
	precheck      types.PrecheckOutcome
	precheckErr   error
	execute       types.ExecuteOutcome
	precheckCalls int
	executeCalls  int
	lastParams    *types.AbilityParams
}

func (f *fakeAbility) Precheck(_ context.Context, params *types.AbilityParams, _ *types.DelegationContext) (types.PrecheckOutcome, error) {
	f.precheckCalls++
	f.lastParams = params
	return f.precheck, f.precheckErr
}

func (f *fakeAbility) Execute(_ context.Context, params *types.AbilityParams, _ *types.DelegationContext) types.ExecuteOutcome {
	f.executeCalls++
	f.lastParams = params
	return f.execute
}

func testDelegation(t *testing.T) *types.DelegationContext {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &types.DelegationContext{DelegatorPkpInfo: types.PkpInfo{
		EthAddress: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PublicKey:  hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)),
	}}
}

func validParams() []byte {
	return []byte(`{"rpcUrl":"https://rpc.example.org","amount":"2","to":"` + recipient + `"}`)
}

func TestHandlePrecheckFail(t *testing.T) {
	ability := &fakeAbility{precheck: types.Fail[types.PrecheckSuccess](types.PrecheckFail{
		Error:  "Delegator (0xabc) does not have enough tokens to send 2 to " + recipient,
		Reason: types.ReasonInsufficientBalance,
	})}
	resp := &JSONResponder{}

	require.NoError(t, Handle(context.Background(), ability, types.PhasePrecheck, validParams(), testDelegation(t), resp))

	assert.True(t, resp.Responded())
	assert.False(t, resp.Success())
	assert.JSONEq(t,
		`{"error":"Delegator (0xabc) does not have enough tokens to send 2 to `+recipient+`","reason":"INSUFFICIENT_BALANCE"}`,
		string(resp.Result()))
	assert.Equal(t, "2", ability.lastParams.Amount)
}

func TestHandlePrecheckSuccess(t *testing.T) {
	ability := &fakeAbility{precheck: types.Succeed[types.PrecheckSuccess, types.PrecheckFail](types.PrecheckSuccess{
		AvailableBalance: "1000000000000000000",
	})}
	resp := &JSONResponder{}

	require.NoError(t, Handle(context.Background(), ability, types.PhasePrecheck, validParams(), testDelegation(t), resp))

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"result":{"availableBalance":"1000000000000000000"}}`, string(out))
}

func TestHandlePrecheckErrorPropagates(t *testing.T) {
	transport := errors.New("connection refused")
	ability := &fakeAbility{precheckErr: transport}
	resp := &JSONResponder{}

	err := Handle(context.Background(), ability, types.PhasePrecheck, validParams(), testDelegation(t), resp)
	assert.Equal(t, transport, err)
	assert.False(t, resp.Responded())
}

func TestHandleExecute(t *testing.T) {
	ability := &fakeAbility{execute: types.Succeed[types.ExecuteSuccess, types.ExecuteFail](types.ExecuteSuccess{
		TxHash:    "0x" + "11111111111111111111111111111111" + "11111111111111111111111111111111",
		To:        recipient,
		Amount:    "2",
		Timestamp: 1700000000000,
	})}
	resp := &JSONResponder{}

	r := New(ability, WithOutcomeValidation(true))
	require.NoError(t, r.Handle(context.Background(), types.PhaseExecute, validParams(), testDelegation(t), resp))

	assert.True(t, resp.Success())
	assert.Equal(t, 1, ability.executeCalls)
	assert.Equal(t, 0, ability.precheckCalls)
}

func TestHandleRejectsSchemaViolations(t *testing.T) {
	for name, raw := range map[string]string{
		"malformed":      `{"amount":`,
		"missing to":     `{"amount":"1"}`,
		"bad address":    `{"amount":"1","to":"0xnope"}`,
		"bad amount":     `{"amount":"one","to":"` + recipient + `"}`,
		"wrong url type": `{"rpcUrl":5,"amount":"1","to":"` + recipient + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			for _, phase := range []types.Phase{types.PhasePrecheck, types.PhaseExecute} {
				ability := &fakeAbility{}
				resp := &JSONResponder{}

				err := Handle(context.Background(), ability, phase, []byte(raw), testDelegation(t), resp)
				require.Error(t, err)
				assert.Equal(t, types.ErrInvalidParams, types.ErrorCode(err))
				assert.Zero(t, ability.precheckCalls+ability.executeCalls)
				assert.False(t, resp.Responded())
			}
		})
	}
}

func TestHandleRejectsBadDelegation(t *testing.T) {
	ability := &fakeAbility{}
	err := Handle(context.Background(), ability, types.PhaseExecute, validParams(), &types.DelegationContext{}, &JSONResponder{})
	assert.Equal(t, types.ErrInvalidDelegation, types.ErrorCode(err))
	assert.Zero(t, ability.executeCalls)
}

func TestHandlePrecheckAcceptsAddressOnlyDelegation(t *testing.T) {
	d := testDelegation(t)
	d.DelegatorPkpInfo.PublicKey = ""
	ability := &fakeAbility{precheck: types.Succeed[types.PrecheckSuccess, types.PrecheckFail](types.PrecheckSuccess{
		AvailableBalance: "1",
	})}

	resp := &JSONResponder{}
	require.NoError(t, Handle(context.Background(), ability, types.PhasePrecheck, validParams(), d, resp))
	assert.True(t, resp.Success())

	err := Handle(context.Background(), ability, types.PhaseExecute, validParams(), d, &JSONResponder{})
	assert.Equal(t, types.ErrInvalidDelegation, types.ErrorCode(err))
	assert.Zero(t, ability.executeCalls)
}

func TestHandleRejectsUnknownPhase(t *testing.T) {
	err := Handle(context.Background(), &fakeAbility{}, types.Phase("commit"), validParams(), testDelegation(t), &JSONResponder{})
	assert.Equal(t, types.ErrInvalidParams, types.ErrorCode(err))
}

func TestOutcomeValidation(t *testing.T) {
	ability := &fakeAbility{execute: types.Succeed[types.ExecuteSuccess, types.ExecuteFail](types.ExecuteSuccess{
		TxHash: "not-a-hash",
		To:     recipient,
		Amount: "2",
	})}

	resp := &JSONResponder{}
	err := New(ability, WithOutcomeValidation(true)).Handle(context.Background(), types.PhaseExecute, validParams(), testDelegation(t), resp)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidOutcome, types.ErrorCode(err))
	assert.False(t, resp.Responded())

	resp = &JSONResponder{}
	require.NoError(t, New(ability).Handle(context.Background(), types.PhaseExecute, validParams(), testDelegation(t), resp))
	assert.True(t, resp.Responded())
}

func TestHandleJSON(t *testing.T) {
	d := testDelegation(t)
	rawDelegation, err := json.Marshal(d)
	require.NoError(t, err)

	ability := &fakeAbility{execute: types.Fail[types.ExecuteSuccess](types.ExecuteFail{Error: "Unknown error occurred"})}
	resp := &JSONResponder{}
	require.NoError(t, New(ability).HandleJSON(context.Background(), types.PhaseExecute, validParams(), rawDelegation, resp))

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"result":{"error":"Unknown error occurred"}}`, string(out))

	err = New(ability).HandleJSON(context.Background(), types.PhaseExecute, validParams(), []byte(`{}`), &JSONResponder{})
	assert.Equal(t, types.ErrInvalidDelegation, types.ErrorCode(err))
}

func TestJSONResponderSingleUse(t *testing.T) {
	resp := &JSONResponder{}
	require.NoError(t, resp.Succeed(map[string]string{"a": "b"}))
	assert.ErrorIs(t, resp.Fail(map[string]string{"c": "d"}), ErrAlreadyResponded)
	assert.True(t, resp.Success())
}
