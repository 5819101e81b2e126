package gemini

// LeadSearchPrompt asks the grounded model for prospects. Format args:
// lead kind description, niche, location, language name, extra instructions.
const LeadSearchPrompt = `You are a real-estate prospecting analyst. Use Google Search and Google Maps to find %s interested in "%s" in or around "%s".

Look for recent public signals: classified ads, social media posts, forum questions, listings by owners, relocation news. Only report people or businesses that publicly expressed the need. Never invent names, phones or e-mails; leave contact fields empty when unknown.

For each lead rate purchase or sale intent from 0 to 100 as "score" and list the signals that justified it as "triggers".

Write "need" and "triggers" in %s.
%s
Return ONLY a JSON object in this exact shape, inside a json code fence:
{"leads":[{"name":"","need":"","location":"","foundAt":"","score":0,"triggers":[""],"contact":"","email":"","publicProfileUrl":""}]}`

// BuyerDescription and OwnerDescription fill the first LeadSearchPrompt slot.
const (
	BuyerDescription = "people looking to buy or rent property"
	OwnerDescription = "property owners looking to sell or rent out"
)

// ScriptPrompt asks for three WhatsApp openers. Format args: broker name,
// agency, lead name, lead need, lead location, triggers, language name, extra instructions.
const ScriptPrompt = `Write three different short WhatsApp messages that broker %s from %s can send to %s, who needs: %s (location: %s). Signals observed: %s.

Rules:
- at most 400 characters each, warm and specific, no hashtags
- first message direct, second consultative, third with urgency
- no placeholders in brackets, sign with the broker's first name
- write in %s
%s
Return ONLY a JSON array of three strings.`

// MarketReportPrompt asks for a grounded market brief. Format args: address, details, language name.
const MarketReportPrompt = `Prepare a concise real-estate market intelligence report for the property at "%s".
Property details: %s

Cover: average price per square meter in the neighborhood, recent comparable listings, demand trend, infrastructure and points of interest, and a suggested asking price range with justification. Use Google Search for current data and say when data is uncertain.

Write the report in %s using short sections with headings.`

// EmailPrompt asks for a marketing email. Format args: goal, topic, broker name, agency, language name.
const EmailPrompt = `Write a real-estate marketing email.
Goal: %s
Topic: %s
Sender: %s, %s

Keep it under 200 words with one clear call to action. Write in %s.
Return ONLY a JSON object: {"subject":"","body":""}`

// ChatPersona is appended to the configured system instruction for chat
// sessions. Format args: broker name, agency, language name, extra instructions.
const ChatPersona = `
You are assisting broker %s from %s. Answer in %s. Keep answers short and actionable: objection handling, negotiation tactics, pricing arguments, follow-up cadence.
%s`

// SpeechPrompt wraps text for the TTS model.
const SpeechPrompt = "Say in a friendly, confident tone: %s"
