package extract

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const detailedPromptTemplate = `คุณคือผู้ช่วย AI ที่เชี่ยวชาญด้านการดึงข้อมูล (Data Extraction) สำหรับระบบ ERP/SAP

งานของคุณคือ:
1. วิเคราะห์ข้อความแชท หรือ text ที่ผู้ใช้ส่งมา ซึ่งอาจมีหลายรูปแบบปนกัน
2. ดึงข้อมูล "ชุดตัวเลขที่สำคัญ" ออกมา โดยเฉพาะรูปแบบที่ไม่ซ้ำกัน
3. ระบุประเภทของตัวเลขนั้นๆ ตามบริบท (เช่น ยอดโอน, เลขที่คำสั่งซื้อ, Tracking No., รหัสสมาชิก)
4. จัดรูปแบบตัวเลขให้พร้อมสำหรับการนำไปคำนวณ (เช่น ตัดเครื่องหมายคอมม่าออก)
5. ข้ามข้อมูลที่ไม่จำเป็น เช่น วันที่ หรือ เวลา (เว้นแต่จะดูเป็นรหัสสำคัญ)

นี่คือข้อความที่ต้องวิเคราะห์:
"""
%s
"""`

// ingestPrompt builds the short server-side prompt, embedding the raw
// message verbatim.
func ingestPrompt(text string) string {
	return fmt.Sprintf("Extract key numbers/identifiers from this LINE message for SAP entry.\nMessage: \"\"\"%s\"\"\"", text)
}

// detailedPrompt builds the richer manual-test prompt.
func detailedPrompt(text string) string {
	return fmt.Sprintf(detailedPromptTemplate, text)
}

// ingestSchema constrains ingestion-path responses to an object with an
// items array of value/type/context records.
func ingestSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"items": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"value":   {Type: jsonschema.String, Description: "The extracted numerical value"},
						"type":    {Type: jsonschema.String, Description: "Category (e.g., ยอดเงิน, Order ID)"},
						"context": {Type: jsonschema.String, Description: "Brief context text"},
					},
					Required: []string{"value", "type", "context"},
				},
			},
		},
		Required: []string{"items"},
	}
}

// detailedSchema adds id and confidence for the interactive variant.
func detailedSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"items": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"id":         {Type: jsonschema.String, Description: "A unique identifier for this extraction (can be random)"},
						"value":      {Type: jsonschema.String, Description: "The extracted numerical value (clean format, no commas if it's a number)"},
						"type":       {Type: jsonschema.String, Description: "The category of the number (e.g., 'ยอดเงิน', 'Order ID', 'Tracking Number', 'เบอร์โทร', 'รหัสลูกค้า')"},
						"context":    {Type: jsonschema.String, Description: "The original text or context identifying this number"},
						"confidence": {Type: jsonschema.Number, Description: "Confidence score between 0 and 1"},
					},
					Required: []string{"id", "value", "type", "context", "confidence"},
				},
			},
		},
		Required: []string{"items"},
	}
}
