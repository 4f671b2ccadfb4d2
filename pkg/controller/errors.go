package controller

// UserMessage is the only failure text shown to the user. Details are logged.
const UserMessage = "Sorry, something went wrong while preparing your presentation. Please start over."
