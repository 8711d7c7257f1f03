package processor

const (
	msgGreeting = "👋 Hi! Send text, voice or photos and I will collect them into a draft.\n" +
		"When you are ready, press the button below to create one task."
	msgPong        = "✅ Bot is running!"
	msgTextAdded   = "💾 Added to draft. Press the button when you are done."
	msgAudioPrefix = "🧠 Recognized speech:\n\n"
	msgImagePrefix = "📄 Recognized text:\n\n"
	msgAudioFetch  = "⚠️ Could not retrieve the audio file."
	msgImageFetch  = "⚠️ Could not retrieve the image."
	msgCleared     = "🧹 Draft cleared."
	msgEmptyDraft  = "⚠️ Draft is empty. Send a message first."
	msgCommitted   = "✅ Created one task from all messages."
	msgCommitError = "❌ Failed to save the task to the table."
)
