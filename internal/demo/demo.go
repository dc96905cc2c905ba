// Package demo seeds a recognizable sample dataset for local development
// and UI work. Nothing here touches a real mailbox.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/secretbox"
)

type Seeder struct {
	accounts *repository.AccountRepository
	emails   *repository.EmailRepository
	secrets  *secretbox.Box
}

func NewSeeder(accounts *repository.AccountRepository, emails *repository.EmailRepository, secrets *secretbox.Box) *Seeder {
	return &Seeder{accounts: accounts, emails: emails, secrets: secrets}
}

// Populate writes the demo accounts and emails. Returns the counts written.
func (s *Seeder) Populate(ctx context.Context) (accounts, emails int, err error) {
	now := time.Now().UTC()
	sealed, err := s.secrets.Seal("***")
	if err != nil {
		return 0, 0, fmt.Errorf("seal demo credential: %w", err)
	}

	demoAccounts := []model.Account{
		{
			ID:          "demo-account-1",
			Email:       "john@example.com",
			Host:        "imap.gmail.com",
			Port:        993,
			Username:    "john@example.com",
			Credential:  sealed,
			DisplayName: "John Doe - Gmail",
			Status:      model.AccountActive,
			LastSyncAt:  &now,
			CreatedAt:   now,
		},
		{
			ID:          "demo-account-2",
			Email:       "sarah@company.com",
			Host:        "imap.office365.com",
			Port:        993,
			Username:    "sarah@company.com",
			Credential:  sealed,
			DisplayName: "Sarah Smith - Outlook",
			Status:      model.AccountActive,
			LastSyncAt:  &now,
			CreatedAt:   now,
		},
	}
	for i := range demoAccounts {
		if err := s.accounts.Create(ctx, &demoAccounts[i]); err != nil {
			return 0, 0, err
		}
	}

	seed := demoEmails(now)
	for i := range seed {
		if err := s.emails.Put(ctx, &seed[i]); err != nil {
			return 0, 0, err
		}
		emails++
	}
	return len(demoAccounts), emails, nil
}

// Clear removes every account and email. Settings survive.
func (s *Seeder) Clear(ctx context.Context) error {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if err := s.accounts.Delete(ctx, a.ID); err != nil {
			return err
		}
	}
	emails, err := s.emails.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range emails {
		if err := s.emails.Delete(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

func demoEmails(now time.Time) []model.Email {
	at := func(hoursAgo int) time.Time { return now.Add(-time.Duration(hoursAgo) * time.Hour) }
	cat := func(c model.Category, hoursAgo int) (model.Category, *time.Time) {
		t := at(hoursAgo)
		return c, &t
	}

	e1cat, e1at := cat(model.CategoryInterested, 2)
	e2cat, e2at := cat(model.CategoryMeetingBooked, 5)
	e3cat, e3at := cat(model.CategoryNotInterested, 24)
	e4cat, e4at := cat(model.CategorySpam, 12)
	e5cat, e5at := cat(model.CategoryOutOfOffice, 48)
	e6cat, e6at := cat(model.CategoryInterested, 6)
	e7cat, e7at := cat(model.CategoryInterested, 3)

	return []model.Email{
		{
			ID: "email-1", AccountID: "demo-account-1", Folder: "INBOX",
			From: "recruiter@techcorp.com", To: "john@example.com",
			Subject: "Your Resume Has Been Shortlisted!",
			Body:    "Hi John,\n\nGreat news! Your resume has been shortlisted for the Senior Software Engineer position. When would be a good time for you to attend the technical interview?\n\nBest regards,\nTech Corp Recruiting",
			ReceivedAt: at(2), Category: e1cat, CategorizedAt: e1at,
			IsStarred: true,
		},
		{
			ID: "email-2", AccountID: "demo-account-1", Folder: "INBOX",
			From: "hr@startup.io", To: "john@example.com",
			Subject: "Meeting Confirmed - Technical Interview",
			Body:    "Hi John,\n\nThis email confirms your technical interview scheduled for tomorrow at 2 PM EST. The Zoom link is: https://zoom.us/j/123456789\n\nLooking forward to speaking with you!\n\nBest,\nStartup.io HR Team",
			ReceivedAt: at(5), Category: e2cat, CategorizedAt: e2at,
			IsRead: true, IsStarred: true,
		},
		{
			ID: "email-3", AccountID: "demo-account-2", Folder: "INBOX",
			From: "noreply@jobboard.com", To: "sarah@company.com",
			Subject: "Thank you for your application",
			Body:    "Dear Applicant,\n\nThank you for your interest in our company. Unfortunately, we have decided to move forward with other candidates whose qualifications more closely match our current needs.\n\nWe wish you the best in your job search.\n\nSincerely,\nJob Board Team",
			ReceivedAt: at(24), Category: e3cat, CategorizedAt: e3at,
			IsRead: true,
		},
		{
			ID: "email-4", AccountID: "demo-account-2", Folder: "INBOX",
			From: "marketing@spam.com", To: "sarah@company.com",
			Subject: "💰 You Won $1,000,000! Claim Now!",
			Body:    "CONGRATULATIONS!!! You are the lucky winner of our grand prize draw. Click here to claim your million dollars now! Limited time offer!!!",
			ReceivedAt: at(12), Category: e4cat, CategorizedAt: e4at,
		},
		{
			ID: "email-5", AccountID: "demo-account-1", Folder: "INBOX",
			From: "manager@bigcorp.com", To: "john@example.com",
			Subject: "Out of Office: Re: Your Application",
			Body:    "Thank you for your email. I am currently out of the office and will return on Monday, January 20th. I will respond to your message upon my return.\n\nFor urgent matters, please contact hr@bigcorp.com.\n\nBest regards",
			ReceivedAt: at(48), Category: e5cat, CategorizedAt: e5at,
			IsRead: true,
		},
		{
			ID: "email-6", AccountID: "demo-account-1", Folder: "INBOX",
			From: "talent@innovate.com", To: "john@example.com",
			Subject: "Exciting Opportunity - Full Stack Developer",
			Body:    "Hi John,\n\nI came across your profile and was impressed by your experience. We have an exciting opportunity for a Full Stack Developer role that I think would be perfect for you.\n\nAre you available for a quick call this week to discuss?\n\nRegards,\nInnovate Talent Team",
			ReceivedAt: at(6), Category: e6cat, CategorizedAt: e6at,
			IsStarred: true, HasAttachments: true,
		},
		{
			ID: "email-7", AccountID: "demo-account-2", Folder: "INBOX",
			From: "ceo@fastgrowth.com", To: "sarah@company.com",
			Subject: "Interview Invitation - Senior Engineer Role",
			Body:    "Dear Sarah,\n\nWe were very impressed with your application for the Senior Engineer position. We would like to invite you for an interview next week.\n\nCould you please confirm your availability for Tuesday or Wednesday?\n\nBest regards,\nFastGrowth CEO",
			ReceivedAt: at(3), Category: e7cat, CategorizedAt: e7at,
			IsStarred: true,
		},
		{
			// still pending: exercises the classification path end to end
			ID: "email-8", AccountID: "demo-account-1", Folder: "INBOX",
			From: "notifications@linkedin.com", To: "john@example.com",
			Subject: "You have 5 new profile views",
			Body:    "Hi John,\n\nYour profile is getting noticed! You have 5 new profile views this week.\n\nSee who viewed your profile and connect with them.\n\nLinkedIn Team",
			ReceivedAt: at(8), IsRead: true,
		},
	}
}
