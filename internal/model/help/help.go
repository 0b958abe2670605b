package help

// Topic explains one app feature step by step.
type Topic struct {
	Key   string   `json:"-"`
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// SeedTips provides the fixed medication adherence tips shown in the app.
func SeedTips() []string {
	return []string{
		"💊 Take medications at the same time daily for better habit formation",
		"⏰ Set up multiple reminder methods: app notifications + alarms",
		"📅 Use a weekly pill organizer for complex schedules",
		"🍽️ Link medication times to meals for better memory",
		"📱 Keep your phone charged to ensure you get notifications",
		"🩺 Never skip doses without consulting your healthcare provider",
		"💧 Always take pills with enough water",
		"📋 Keep an updated medication list for emergencies",
	}
}

// SeedTopics provides the built-in app help topics.
func SeedTopics() []Topic {
	return []Topic{
		{
			Key:   "adding_medications",
			Title: "Adding Medications",
			Steps: []string{
				"Tap the + button at the bottom right",
				"Enter your medication name",
				"Set the time you need to take it",
				"Select the days of the week",
				"Tap 'Add Medication'",
			},
		},
		{
			Key:   "notifications",
			Title: "Setting Up Notifications",
			Steps: []string{
				"Allow notifications when prompted",
				"Notifications are automatically set when you add medications",
				"You can tap 'Taken' directly from the notification",
				"Make sure your phone isn't in Do Not Disturb mode",
			},
		},
		{
			Key:   "taking_medications",
			Title: "Marking Medications as Taken",
			Steps: []string{
				"Find your medication on today's schedule",
				"Tap the 'Take' button",
				"The medication will be marked with a green checkmark",
				"You can also mark as taken from notifications",
			},
		},
		{
			Key:   "managing_medications",
			Title: "Managing Your Medications",
			Steps: []string{
				"View all medications in the 'All Medications' section",
				"Tap the three dots (⋯) to see options",
				"Delete medications you no longer need",
				"Use Settings to clear all data if needed",
			},
		},
	}
}
