package pages

type Service struct {
	Slug    string
	Title   string
	Summary string
	Points  []string
	Price   string
}

const vatNote = "UK VAT added where applicable. Fixed-price projects negotiable."

var catalog = []Service{
	{
		Slug:    "web-development",
		Title:   "Web Development",
		Summary: "Responsive, high-performance websites and web applications built from the ground up.",
		Points:  []string{"Corporate sites and portfolios", "E-commerce storefronts", "Custom web applications", "UI/UX design"},
		Price:   "£120/hr | £480/day. " + vatNote,
	},
	{
		Slug:    "software-development",
		Title:   "Software Development",
		Summary: "Custom software, APIs and internal tools designed around your business logic.",
		Points:  []string{"Backend services and APIs", "Dashboards and internal tools", "Integrations and automation"},
		Price:   "£120/hr | £480/day. " + vatNote,
	},
	{
		Slug:    "saas-blockchain",
		Title:   "Blockchain SaaS Solutions",
		Summary: "Software-as-a-service products with on-chain ownership, payments and audit trails.",
		Points:  []string{"Content monetization with tokens", "Creator royalty distribution", "Decentralized governance", "Immutable audit trails"},
		Price:   "Quoted per project. " + vatNote,
	},
	{
		Slug:    "tokenization-services",
		Title:   "Tokenization Services",
		Summary: "Represent real-world and digital assets as tokens with clear ownership and distribution rules.",
		Points:  []string{"Commercial property fractionalization", "Rental income distribution", "Carbon credit tokens", "Supply chain integration"},
		Price:   "Quoted per project. " + vatNote,
	},
	{
		Slug:    "stablecoin-payments",
		Title:   "Stablecoin Payment Solutions",
		Summary: "Accept and settle payments in stablecoins across marketplaces, subscriptions and invoices.",
		Points:  []string{"Online marketplace payments", "Subscription billing systems", "Multi-vendor payouts", "Escrow services"},
		Price:   "Quoted per project. " + vatNote,
	},
	{
		Slug:    "technical-consulting",
		Title:   "Technical Consulting",
		Summary: "Architecture reviews, technology strategy and hands-on guidance for your team.",
		Points:  []string{"Architecture and code reviews", "Technology roadmaps", "Team mentoring"},
		Price:   "£150/hr. " + vatNote,
	},
	{
		Slug:    "support-maintenance",
		Title:   "Support & Maintenance",
		Summary: "Ongoing care that keeps your sites and applications secure, fast and up to date.",
		Points:  []string{"Security updates and monitoring", "Performance tuning", "Content and feature updates"},
		Price:   "Plans from £250/month. " + vatNote,
	},
	{
		Slug:    "seo-marketing",
		Title:   "SEO & Digital Marketing",
		Summary: "Search optimisation and targeted campaigns that attract, convert and retain customers.",
		Points:  []string{"Technical SEO audits", "Content strategy", "Paid campaigns and analytics"},
		Price:   "£110/hr | £450/day. " + vatNote,
	},
	{
		Slug:    "social-media-management",
		Title:   "Social Media Management",
		Summary: "Consistent, on-brand social channels with content, scheduling and community management.",
		Points:  []string{"Content calendars", "Community management", "Performance reporting"},
		Price:   "£80/hr | Retainer. " + vatNote,
	},
	{
		Slug:    "logo-branding",
		Title:   "Logo & Branding",
		Summary: "Memorable identities: logos, visual language and a consistent brand voice.",
		Points:  []string{"Logo design", "Brand guidelines", "Visual identity systems"},
		Price:   "£90/hr | Project-based. " + vatNote,
	},
}

func Services() []Service {
	return catalog
}

func FindService(slug string) (Service, bool) {
	for _, s := range catalog {
		if s.Slug == slug {
			return s, true
		}
	}
	return Service{}, false
}
