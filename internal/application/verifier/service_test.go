package verifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/zephyra-labs/tradeledger/internal/domain/chain"
	chainMocks "github.com/zephyra-labs/tradeledger/internal/domain/chain/mocks"
)

func uintPtr(v uint64) *uint64 { return &v }

func TestVerifyConfirmedTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := chainMocks.NewMockClient(ctrl)
	svc := NewService(client, time.Second, zerolog.Nop())

	client.EXPECT().
		TransactionReceipt(gomock.Any(), "0xabc").
		Return(&chain.Receipt{TxHash: "0xabc", Succeeded: true, BlockNumber: uintPtr(100)}, nil)
	client.EXPECT().
		ChainHeight(gomock.Any()).
		Return(uint64(110), nil)

	v := svc.Verify(context.Background(), "0xabc")
	require.NotNil(t, v)
	assert.True(t, v.Succeeded)
	assert.Equal(t, uint64(100), v.BlockNumber)
	assert.Equal(t, uint64(11), v.Confirmations)
}

func TestVerifyFailedTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := chainMocks.NewMockClient(ctrl)
	svc := NewService(client, time.Second, zerolog.Nop())

	client.EXPECT().
		TransactionReceipt(gomock.Any(), "0xabc").
		Return(&chain.Receipt{TxHash: "0xabc", Succeeded: false, BlockNumber: uintPtr(100)}, nil)
	client.EXPECT().
		ChainHeight(gomock.Any()).
		Return(uint64(100), nil)

	v := svc.Verify(context.Background(), "0xabc")
	require.NotNil(t, v)
	assert.False(t, v.Succeeded)
	assert.Equal(t, uint64(1), v.Confirmations)
}

func TestVerifyUnknownTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := chainMocks.NewMockClient(ctrl)
	svc := NewService(client, time.Second, zerolog.Nop())

	client.EXPECT().
		TransactionReceipt(gomock.Any(), "0xabc").
		Return(nil, nil)

	assert.Nil(t, svc.Verify(context.Background(), "0xabc"))
}

func TestVerifyPendingTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := chainMocks.NewMockClient(ctrl)
	svc := NewService(client, time.Second, zerolog.Nop())

	client.EXPECT().
		TransactionReceipt(gomock.Any(), "0xabc").
		Return(&chain.Receipt{TxHash: "0xabc", Succeeded: true}, nil)

	assert.Nil(t, svc.Verify(context.Background(), "0xabc"))
}

func TestVerifyProviderErrorIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := chainMocks.NewMockClient(ctrl)
	svc := NewService(client, time.Second, zerolog.Nop())

	client.EXPECT().
		TransactionReceipt(gomock.Any(), "0xabc").
		Return(nil, errors.New("connection reset"))

	assert.Nil(t, svc.Verify(context.Background(), "0xabc"))
}

func TestVerifyHeightErrorIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := chainMocks.NewMockClient(ctrl)
	svc := NewService(client, time.Second, zerolog.Nop())

	client.EXPECT().
		TransactionReceipt(gomock.Any(), "0xabc").
		Return(&chain.Receipt{TxHash: "0xabc", Succeeded: true, BlockNumber: uintPtr(100)}, nil)
	client.EXPECT().
		ChainHeight(gomock.Any()).
		Return(uint64(0), errors.New("timeout"))

	assert.Nil(t, svc.Verify(context.Background(), "0xabc"))
}

func TestVerifyHonorsTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := chainMocks.NewMockClient(ctrl)
	svc := NewService(client, 10*time.Millisecond, zerolog.Nop())

	client.EXPECT().
		TransactionReceipt(gomock.Any(), "0xabc").
		DoAndReturn(func(ctx context.Context, txHash string) (*chain.Receipt, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	start := time.Now()
	assert.Nil(t, svc.Verify(context.Background(), "0xabc"))
	assert.Less(t, time.Since(start), time.Second)
}
