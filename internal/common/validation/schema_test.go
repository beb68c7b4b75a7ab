package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentSchema(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantField string
	}{
		{
			name:      "single machine",
			doc:       `{"isMultiMachineQuery":false,"intent":null,"compoundIntents":[],"machine":{"productId":"L47181","name":null,"location":null,"type":null},"confidence":0.9}`,
			wantValid: true,
		},
		{
			name:      "numeric risk threshold",
			doc:       `{"isMultiMachineQuery":true,"riskThreshold":0.7,"machine":{}}`,
			wantValid: true,
		},
		{
			name:      "missing machine",
			doc:       `{"isMultiMachineQuery":true}`,
			wantValid: false,
			wantField: "(root)",
		},
		{
			name:      "wrong flag type",
			doc:       `{"isMultiMachineQuery":"yes","machine":{}}`,
			wantValid: false,
			wantField: "isMultiMachineQuery",
		},
		{
			name:      "percentage confidence",
			doc:       `{"machine":{"productId":"L47182"},"confidence":90}`,
			wantValid: true,
		},
		{
			name:      "confidence as text",
			doc:       `{"machine":{},"confidence":"high"}`,
			wantValid: false,
			wantField: "confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := IntentSchema.ValidateJSON([]byte(tt.doc))
			assert.Equal(t, tt.wantValid, res.Valid, res.GetErrorMessages())
			if !tt.wantValid {
				assert.True(t, res.HasErrors(tt.wantField), res.GetErrorMessages())
				assert.Error(t, res.Err())
			} else {
				assert.NoError(t, res.Err())
			}
		})
	}
}

func TestChatInputSchema(t *testing.T) {
	valid := map[string]interface{}{
		"user_input": "bagaimana kondisi mesin L47182?",
		"conversation_history": []interface{}{
			map[string]interface{}{"role": "user", "content": "halo"},
		},
	}
	assert.True(t, ChatInputSchema.Validate(valid).Valid)

	res := ChatInputSchema.Validate(map[string]interface{}{"user_input": ""})
	require.False(t, res.Valid)
	assert.True(t, res.HasErrors("user_input"))

	res = ChatInputSchema.Validate(map[string]interface{}{
		"user_input":           "x",
		"conversation_history": []interface{}{map[string]interface{}{"role": "system", "content": "y"}},
	})
	assert.False(t, res.Valid)
}

func TestAlertInputSchema(t *testing.T) {
	res := AlertInputSchema.Validate(map[string]interface{}{
		"riskLevel": "HIGH",
		"machine":   map[string]interface{}{"productId": "L47182"},
	})
	assert.True(t, res.Valid, res.GetErrorMessages())

	res = AlertInputSchema.Validate(map[string]interface{}{"riskLevel": "SEVERE", "machine": map[string]interface{}{"productId": "L1"}})
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("riskLevel"))
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
	assert.True(t, ValidateEmail("ops@plant.example.com"))
	assert.False(t, ValidateEmail("ops@"))
}
