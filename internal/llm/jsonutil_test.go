package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intentReply struct {
	QueryType string `json:"queryType"`
	MachineID string `json:"machineId"`
}

func TestDecodeJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    intentReply
		wantErr error
	}{
		{
			name:    "plain object",
			content: `{"queryType":"single_machine","machineId":"L47181"}`,
			want:    intentReply{QueryType: "single_machine", MachineID: "L47181"},
		},
		{
			name:    "fenced with prose",
			content: "Berikut hasilnya:\n```json\n{\"queryType\":\"documentation\"}\n```\nSemoga membantu.",
			want:    intentReply{QueryType: "documentation"},
		},
		{
			name:    "trailing comma",
			content: "{\"queryType\":\"multi_machine\",\"machineId\":\"\",}",
			want:    intentReply{QueryType: "multi_machine"},
		},
		{
			name:    "no object",
			content: "maaf, saya tidak mengerti",
			wantErr: ErrNoJSONObject,
		},
		{
			name:    "broken object",
			content: `{"queryType": single_machine}`,
			wantErr: ErrMalformedJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got intentReply
			err := DecodeJSONObject(tt.content, &got)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanJSONReply(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSONReply("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "", CleanJSONReply("   "))
}
