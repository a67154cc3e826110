package service

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staking_hub/internal/app/port"
	"staking_hub/internal/config"
	"staking_hub/internal/domain/entity"
	networkdefinition "staking_hub/internal/infrastructure/network/definition"
	"staking_hub/internal/pkg/logger"
)

const (
	testContract  = "0x3333333333333333333333333333333333333333"
	testRecipient = "0x4444444444444444444444444444444444444444"
	testStranger  = "0x5555555555555555555555555555555555555555"
	testTxHash    = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type countingRecorder struct {
	mu       sync.Mutex
	ok, fail int
}

func (r *countingRecorder) RecordTransfer(success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.ok++
	} else {
		r.fail++
	}
}

// nftChain answers ownerOf from owners (token id -> owner) and accepts transfers.
func nftChain(owners map[int64]string) *fakeProvider {
	return connectedProvider().
		returns("eth_chainId", "0x92").
		on("eth_call", func(params []any) (any, error) {
			call := params[0].(txCall)
			data := hexutil.MustDecode(call.Data)
			tokenID := new(big.Int).SetBytes(data[4:]).Int64()
			owner, ok := owners[tokenID]
			if !ok {
				return nil, &entity.ProviderError{Code: 3, Message: "execution reverted: ERC721: invalid token ID"}
			}
			return hexutil.Encode(common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32)), nil
		}).
		returns("eth_estimateGas", "0x5208").
		returns("eth_gasPrice", "0x3b9aca00").
		returns("eth_sendTransaction", testTxHash)
}

func newTestTransferService(t *testing.T, p *fakeProvider, rec TransferRecorder) port.NFTTransferService {
	return newPacedTransferService(t, p, rec, 1)
}

func newPacedTransferService(t *testing.T, p *fakeProvider, rec TransferRecorder, pacingMs int64) port.NFTTransferService {
	t.Helper()
	m := newTestManager(p)
	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)
	networks := networkdefinition.NewNetworkDescriptorProvider(logger.NewSlogAdapter("test"), nil)
	cfg := config.TransferConfig{GasBufferPercent: 20, PacingDelayMs: pacingMs}
	return NewNFTTransferService(m, networks, rec, cfg, zap.NewNop())
}

func request(tokenID string) entity.TransferRequest {
	return entity.TransferRequest{
		ContractAddress: testContract,
		TokenID:         tokenID,
		FromAddress:     testAccount,
		ToAddress:       testRecipient,
	}
}

func TestTransferNFTSubmits(t *testing.T) {
	p := nftChain(map[int64]string{7: testAccount})
	rec := &countingRecorder{}
	svc := newTestTransferService(t, p, rec)

	res := svc.TransferNFT(context.Background(), request("7"))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, testTxHash, res.TxHash)
	assert.Equal(t, "25200", res.GasUsed)
	assert.Equal(t, "0.0000252", res.GasCost)

	sends := p.callsTo("eth_sendTransaction")
	require.Len(t, sends, 1)
	tx := sends[0].Params[0].(txCall)
	assert.Equal(t, "0x6270", tx.Gas)
	assert.Equal(t, "0x3b9aca00", tx.GasPrice)
	assert.Equal(t, testContract, tx.To)
	assert.True(t, strings.HasPrefix(tx.Data, "0x42842e0e"), tx.Data)
	assert.Equal(t, 1, rec.ok)
}

func TestTransferNFTNotOwner(t *testing.T) {
	p := nftChain(map[int64]string{7: testStranger})
	rec := &countingRecorder{}
	svc := newTestTransferService(t, p, rec)

	res := svc.TransferNFT(context.Background(), request("7"))
	assert.False(t, res.Success)
	assert.Equal(t, "You don't own this NFT", res.Error)
	assert.Zero(t, p.callCount("eth_estimateGas"))
	assert.Zero(t, p.callCount("eth_sendTransaction"))
	assert.Equal(t, 1, rec.fail)
}

func TestTransferNFTValidation(t *testing.T) {
	p := nftChain(map[int64]string{7: testAccount})
	svc := newTestTransferService(t, p, nil)

	bad := request("7")
	bad.ToAddress = "0x123"
	res := svc.TransferNFT(context.Background(), bad)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid address")

	bad = request("seven")
	res = svc.TransferNFT(context.Background(), bad)
	assert.Contains(t, res.Error, "invalid token id")
	assert.Zero(t, p.callCount("eth_call"))
}

func TestTransferNFTErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		err    error
		want   string
	}{
		{"rejected", "eth_sendTransaction", &entity.ProviderError{Code: entity.CodeUserRejected, Message: "User denied transaction signature"}, "Transaction rejected by user"},
		{"funds", "eth_sendTransaction", &entity.ProviderError{Code: -32000, Message: "insufficient funds for gas * price + value"}, "Insufficient funds for gas"},
		{"revert", "eth_estimateGas", &entity.ProviderError{Code: 3, Message: "execution reverted: paused"}, "Transaction would revert: execution reverted: paused"},
		{"other", "eth_gasPrice", errors.New("connection refused"), "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := nftChain(map[int64]string{7: testAccount}).fails(tt.method, tt.err)
			svc := newTestTransferService(t, p, nil)
			res := svc.TransferNFT(context.Background(), request("7"))
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
		})
	}
}

func TestBulkTransferNFTs(t *testing.T) {
	p := nftChain(map[int64]string{1: testAccount, 2: testStranger, 3: testAccount})
	svc := newTestTransferService(t, p, nil)

	var progress []entity.TransferProgress
	items := []entity.TransferRequest{request("1"), request("2"), request("3")}
	for i := range items {
		items[i].FromAddress = ""
	}
	res := svc.BulkTransferNFTs(context.Background(), items, testAccount, func(pr entity.TransferProgress) {
		progress = append(progress, pr)
	})

	assert.Equal(t, entity.BulkTransferSummary{Total: 3, Succeeded: 2, Failed: 1}, res.Summary)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "2", res.Failed[0].TokenID)
	assert.Equal(t, "You don't own this NFT", res.Failed[0].Error)
	assert.Equal(t, "0.0000504", res.TotalGasCost)
	assert.Equal(t, testAccount, res.Successful[0].FromAddress)

	require.Len(t, progress, 4)
	assert.Equal(t, 1, progress[0].Current)
	assert.Equal(t, "1", progress[0].Item.TokenID)
	assert.Equal(t, entity.TransferProgress{Current: 3, Total: 3, Done: true}, progress[3])
}

func TestBulkTransferCancelledKeepsCount(t *testing.T) {
	p := nftChain(map[int64]string{1: testAccount, 2: testAccount})
	svc := newTestTransferService(t, p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := svc.BulkTransferNFTs(ctx, []entity.TransferRequest{request("1"), request("2")}, testAccount, nil)

	assert.Equal(t, 2, res.Summary.Total)
	assert.Len(t, res.Failed, 2)
	assert.Empty(t, res.Successful)
	assert.Contains(t, res.Failed[0].Error, "cancelled")
	assert.Zero(t, p.callCount("eth_sendTransaction"))
}

func TestBulkTransferPacesFromPreviousCompletion(t *testing.T) {
	const (
		pacing   = 100 * time.Millisecond
		sendTime = 150 * time.Millisecond
	)
	var (
		mu       sync.Mutex
		started  []int64
		startAt  []time.Time
		finished []time.Time
	)
	p := nftChain(nil).
		on("eth_call", func(params []any) (any, error) {
			data := hexutil.MustDecode(params[0].(txCall).Data)
			mu.Lock()
			started = append(started, new(big.Int).SetBytes(data[4:]).Int64())
			startAt = append(startAt, time.Now())
			mu.Unlock()
			return hexutil.Encode(common.LeftPadBytes(common.HexToAddress(testAccount).Bytes(), 32)), nil
		}).
		on("eth_sendTransaction", func([]any) (any, error) {
			time.Sleep(sendTime)
			mu.Lock()
			finished = append(finished, time.Now())
			mu.Unlock()
			return testTxHash, nil
		})
	svc := newPacedTransferService(t, p, nil, pacing.Milliseconds())

	res := svc.BulkTransferNFTs(context.Background(),
		[]entity.TransferRequest{request("1"), request("2"), request("3")}, testAccount, nil)
	require.Equal(t, 3, res.Summary.Succeeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3}, started)
	require.Len(t, startAt, 3)
	require.Len(t, finished, 3)
	for i := 1; i < 3; i++ {
		gap := startAt[i].Sub(finished[i-1])
		assert.GreaterOrEqual(t, gap, pacing, "gap before item %d", i+1)
	}
}

func TestBulkTransferCancelledDuringPause(t *testing.T) {
	p := nftChain(map[int64]string{1: testAccount, 2: testAccount})
	svc := newPacedTransferService(t, p, nil, int64(time.Hour/time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan entity.BulkTransferResult, 1)
	go func() {
		done <- svc.BulkTransferNFTs(ctx, []entity.TransferRequest{request("1"), request("2")}, testAccount, nil)
	}()
	require.Eventually(t, func() bool { return p.callCount("eth_sendTransaction") == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	var res entity.BulkTransferResult
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bulk transfer did not stop on cancellation")
	}
	assert.Equal(t, 1, res.Summary.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.True(t, strings.HasPrefix(res.Failed[0].Error, "Transfer cancelled: "), res.Failed[0].Error)
}

func TestEstimateTransferCost(t *testing.T) {
	p := nftChain(map[int64]string{7: testStranger})
	svc := newTestTransferService(t, p, nil)

	est, err := svc.EstimateTransferCost(context.Background(), request("7"))
	require.NoError(t, err)
	assert.Equal(t, "25200", est.GasLimit)
	assert.Equal(t, "1000000000", est.GasPrice)
	assert.Equal(t, "25200000000000", est.CostWei)
	assert.Equal(t, "0.0000252", est.Cost)
	assert.Equal(t, "S", est.CostSymbol)
}

func TestEstimateBulkTransferCostPerItem(t *testing.T) {
	estimates := 0
	p := nftChain(nil).on("eth_estimateGas", func([]any) (any, error) {
		estimates++
		switch estimates {
		case 1:
			return "0x5208", nil
		case 2:
			return nil, &entity.ProviderError{Code: 3, Message: "execution reverted"}
		default:
			return "0xa410", nil
		}
	})
	svc := newTestTransferService(t, p, nil)

	est, err := svc.EstimateBulkTransferCost(context.Background(), []entity.TransferRequest{request("1"), request("2"), request("3")}, testAccount)
	require.NoError(t, err)
	assert.True(t, est.Approximate)
	assert.Equal(t, 3, est.Items)
	require.Len(t, est.PerItem, 3)
	assert.Equal(t, "25200", est.PerItem[0].GasLimit)
	assert.Equal(t, "25200", est.PerItem[1].GasLimit)
	assert.Equal(t, "50400", est.PerItem[2].GasLimit)
	assert.Equal(t, "100800", est.TotalGas)
	assert.Equal(t, "0.0001008", est.Total)

	_, err = svc.EstimateBulkTransferCost(context.Background(), nil, testAccount)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestEstimateBulkTransferCostAllFail(t *testing.T) {
	p := nftChain(nil).fails("eth_estimateGas", &entity.ProviderError{Code: 3, Message: "execution reverted"})
	svc := newTestTransferService(t, p, nil)

	_, err := svc.EstimateBulkTransferCost(context.Background(), []entity.TransferRequest{request("1")}, testAccount)
	assert.Error(t, err)
}

func TestGetNFTOwner(t *testing.T) {
	p := nftChain(map[int64]string{9: testStranger})
	svc := newTestTransferService(t, p, nil)

	owner, err := svc.GetNFTOwner(context.Background(), testContract, "9")
	require.NoError(t, err)
	assert.True(t, strings.EqualFold(testStranger, owner))

	_, err = svc.GetNFTOwner(context.Background(), "nope", "9")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = svc.GetNFTOwner(context.Background(), testContract, "10")
	assert.Error(t, err)
}
