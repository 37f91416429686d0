package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_StatusPayloadShape(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	ev := StatusChanged("order-1", "user-7", "confirmed", at)

	raw, err := Encode(ev)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "order-1", fields["orderId"])
	assert.Equal(t, "confirmed", fields["status"])
	assert.Equal(t, "user-7", fields["userId"])
	assert.Equal(t, "2024-05-01T09:30:00Z", fields["timestamp"])
	assert.NotEmpty(t, fields["message"])
	assert.NotContains(t, fields, "paymentStatus")
}

func TestEncode_PaymentPayloadSubstitutesStatusKey(t *testing.T) {
	ev := PaymentChanged("order-2", "user-7", "succeeded", time.Now())

	raw, err := Encode(ev)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "succeeded", fields["paymentStatus"])
	assert.NotContains(t, fields, "status")
}

func TestDecode_RoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	ev := StatusChanged("order-3", "user-9", "ready", at)

	raw, err := Encode(ev)
	require.NoError(t, err)

	decoded, err := Decode(KindOrderStatus, raw)
	require.NoError(t, err)
	assert.Equal(t, ev, decoded)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode(KindOrderStatus, []byte("{not json"))
	assert.Error(t, err)

	_, err = Decode(KindUnrecognized, []byte("{}"))
	assert.Error(t, err)
}

func TestStatusChanged_ExactlyOnePerCall(t *testing.T) {
	a := StatusChanged("o", "u", "confirmed", time.Now())
	b := StatusChanged("o", "u", "confirmed", time.Now())

	// events are values; each accepted transition creates its own
	assert.Equal(t, a.SubjectID, b.SubjectID)
	assert.Equal(t, KindOrderStatus, a.Kind)
	assert.Equal(t, "confirmed", a.StatusValue)
}
