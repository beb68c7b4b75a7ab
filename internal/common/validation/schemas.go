package validation

// IntentSchema guards the JSON extracted from the intent-parsing completion.
var IntentSchema = MustCompile("parsed-intent", `{
  "type": "object",
  "required": ["machine"],
  "properties": {
    "isMultiMachineQuery": {"type": ["boolean", "null"]},
    "isDocumentationQuery": {"type": ["boolean", "null"]},
    "intent": {"type": ["string", "null"]},
    "compoundIntents": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    },
    "timeWindow": {"type": ["string", "null"]},
    "riskThreshold": {"type": ["string", "number", "null"]},
    "machine": {
      "type": "object",
      "properties": {
        "productId": {"type": ["string", "null"]},
        "name": {"type": ["string", "null"]},
        "location": {"type": ["string", "null"]},
        "type": {"type": ["string", "null"]}
      }
    },
    "confidence": {"type": ["number", "null"]}
  }
}`)

// ChatInputSchema guards the variables of a maintenance-copilot-chat job.
var ChatInputSchema = MustCompile("chat-input", `{
  "type": "object",
  "required": ["user_input"],
  "properties": {
    "user_input": {"type": "string", "minLength": 1, "maxLength": 4000},
    "machine_id": {"type": "string"},
    "conversation_history": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "properties": {
          "role": {"type": "string", "enum": ["user", "assistant"]},
          "content": {"type": "string"}
        }
      }
    }
  }
}`)

// AlertInputSchema guards the variables of a notify-maintenance-alert job.
var AlertInputSchema = MustCompile("alert-input", `{
  "type": "object",
  "required": ["riskLevel", "machine"],
  "properties": {
    "requestId": {"type": "string"},
    "riskLevel": {"type": "string", "enum": ["LOW", "MODERATE", "HIGH"]},
    "machine": {
      "type": "object",
      "required": ["productId"],
      "properties": {
        "machineId": {"type": "string"},
        "productId": {"type": "string", "minLength": 1}
      }
    }
  }
}`)
