package models

import "slices"

// Topic is one of the predefined subjects a student can start a conversation from.
type Topic struct {
	ID          string
	Title       string
	Icon        string
	Description string
}

// Resource is a local legal service listed after the conversation.
type Resource struct {
	Name     string
	Type     string
	Address  string
	Phone    string
	Website  string
	Hours    string
	Distance string
}

// CustomQueryTopicID is the topic id used when the student types or speaks their own question
// instead of picking a topic.
const CustomQueryTopicID = "custom-query"

var topics = []Topic{
	{
		ID:          "tenant-rights",
		Title:       "Tenant Rights",
		Icon:        "home",
		Description: "Learn about your rights as a tenant and housing laws",
	},
	{
		ID:          "traffic-stops",
		Title:       "Traffic Stops",
		Icon:        "car",
		Description: "Understand your rights during traffic stops and police interactions",
	},
	{
		ID:          "protest-guidelines",
		Title:       "Protest Guidelines",
		Icon:        "users",
		Description: "Know your rights when participating in protests and demonstrations",
	},
	{
		ID:          "car-accident",
		Title:       "Car Accident",
		Icon:        "shield",
		Description: "Steps to take after a car accident and your legal rights",
	},
}

var resources = []Resource{
	{
		Name:     "Legal Document Services",
		Type:     "Legal Clinic",
		Address:  "104 Walnut Ave. Suite 204, Santa Cruz, CA 95060",
		Phone:    "(831) 469-8470",
		Website:  "https://www.legaldocumentservices.net/",
		Hours:    "Mon-Fri: 9AM-5PM",
		Distance: "2.3 miles",
	},
	{
		Name:     "Lawyer Referral Service of Santa Cruz",
		Type:     "Non-Profit Organization",
		Address:  "456 Oak Ave, Santa Cruz, CA 95061",
		Phone:    "(831) 425-4755",
		Website:  "https://lawyerreferralsantacruz.org/",
		Hours:    "Mon-Thu: 10AM-6PM",
		Distance: "3.1 miles",
	},
	{
		Name:     "Wade Litigation",
		Type:     "Non-Profit Organization",
		Address:  "456 Oak Ave, Santa Cruz, CA 95061",
		Phone:    "1-866-963-1695",
		Website:  "https://wadelitigation.com/family-law/",
		Hours:    "Mon-Thu: 10AM-6PM",
		Distance: "5.2 miles",
	},
}

// Topics returns the fixed topic list in display order. The returned slice is a copy.
func Topics() []Topic {
	return slices.Clone(topics)
}

// FindTopic looks a topic up by id.
func FindTopic(id string) (Topic, bool) {
	idx := slices.IndexFunc(topics, func(t Topic) bool { return t.ID == id })
	if idx == -1 {
		return Topic{}, false
	}
	return topics[idx], true
}

// Resources returns the fixed list of local resources. The returned slice is a copy.
func Resources() []Resource {
	return slices.Clone(resources)
}
