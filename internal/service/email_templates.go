package service

import (
	"fmt"
	"time"
)

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func verificationCodeTemplate(code string, expiry time.Duration, appName string) (string, string) {
	subject := fmt.Sprintf("%s is your %s verification code", code, appName)
	body := fmt.Sprintf(`Welcome to %s!

Enter this code to verify your email address:

    %s

The code expires in %d minutes.

If you didn't create an account, you can ignore this email.

Best,
The %s Team`, appName, code, int(expiry.Minutes()), appName)

	return subject, body
}

func passwordResetCodeTemplate(code, resetURL string, expiry time.Duration, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your %s password", appName)
	body := fmt.Sprintf(`You asked to reset your password. Enter this code on the reset page:

    %s

%s

The code expires in %d minutes and can only be used once. Resetting signs you out everywhere.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, code, resetURL, int(expiry.Minutes()), appName)

	return subject, body
}

func passwordChangedTemplate(appName string) (string, string) {
	subject := fmt.Sprintf("Your %s password was changed", appName)
	body := fmt.Sprintf(`Your password was just changed and all other sessions were signed out.

If this wasn't you, reset your password immediately and contact support.

Best,
The %s Team`, appName)

	return subject, body
}

func welcomeEmailTemplate(name, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your pillars are set up and your dashboard is ready.

Start your first focus session: %s

Best,
The %s Team`, greetingName(name), dashboardURL, appName)

	return subject, body
}

func friendRequestTemplate(fromUsername, friendsURL, appName string) (string, string) {
	subject := fmt.Sprintf("@%s wants to be friends on %s", fromUsername, appName)
	body := fmt.Sprintf(`@%s sent you a friend request.

Accept or decline it here: %s

You can turn off these emails in Settings.

Best,
The %s Team`, fromUsername, friendsURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Hi %s,

Your account has been permanently deleted from %s.

Your tasks, focus sessions, goals, journal, pillars and avatar have been removed.

If you didn't request this deletion, please contact our support team immediately, though we won't be able to recover your account.

Best,
The %s Team`, greetingName(name), appName, appName)

	return subject, body
}
