package agents

import "github.com/tico-news/newsmonitor/pkg/models"

// InitialCategories is the catalog installed on first start. The sentinel
// category is carried here too so the verdicts table always has it to
// reference.
var InitialCategories = []models.SmartCategory{
	{
		Name:        models.UnknownCategory,
		Description: "Internal category used only for database tracking of news articles that have not yet been assigned a proper category",
		Ignore:      true,
	},
	{
		Name:        "lifestyle",
		Description: "news related to people's way of life, their choices, values and stories of their life",
	},
	{
		Name:        "lifestyle/expats",
		Description: "news about Costa Ricans who are achieving significant success and recognition while living and working in other countries",
	},
	{
		Name:        "entertainment",
		Description: "news and articles related to entertainment such as movies, music, TV and live events",
	},
	{
		Name:        "entertainment/celebrities",
		Description: "news related to celebrities and prominent figures in the entertainment industry, including their personal lives, events (e.g., births, deaths, weddings, etc.), and achievements",
	},
	{
		Name:        "crime",
		Description: "news about criminal activities and law enforcement",
		Ignore:      true,
	},
	{
		Name:        "crime/femicide",
		Description: "News related to homicides specifically targeting women, often involving gender-based violence and related legal proceedings",
		Ignore:      true,
	},
	{
		Name:        "government",
		Description: "news related to the actions and decisions of the government at all levels, including municipalities, courts, and other governmental bodies",
	},
	{
		Name:        "government/public_opinion",
		Description: "News related to the public's sentiment, opinions, and reactions towards government actions, policies, and officials. It includes analysis of public perception and feedback on governmental decisions and their impact",
	},
	{
		Name:        "government/courts",
		Description: "News related to the actions and decisions of the government at all levels, including decisions and operations of the court system",
	},
	{
		Name:        "government/party_politics",
		Description: "News related to the internal operations, elections, and decision-making processes within political parties",
	},
	{
		Name:        "weather",
		Description: "news related to weather conditions, forecasts, and climate-related events",
	},
	{
		Name:        "culture/arts",
		Description: "news related to artistic endeavors, cultural events, and figures",
	},
	{
		Name:        "sport/boxing",
		Description: "news related to boxing as a sport, including fights, tournaments, and controversies surrounding the sport",
		Ignore:      true,
	},
	{
		Name:        "sport/baseball",
		Description: "News related to baseball as a sport, including games, tournaments, and events surrounding the sport",
		Ignore:      true,
	},
	{
		Name:        "health/children",
		Description: "news specifically related to the health and well-being of children, including public health issues, medical treatments, and healthcare policies affecting children",
	},
	{
		Name:        "economy/trade",
		Description: "News related to economic activities, trade, commerce, and their impact on the country. This includes analysis of economic indicators, trade agreements, and issues affecting businesses",
	},
	{
		Name:        "transportation/aviation",
		Description: "News related to air travel and aviation incidents",
	},
	{
		Name:        "incidents",
		Description: "News related to accidents, disasters, and other unexpected events that cause harm or disruption",
	},
	{
		Name:        "incidents/infrastructure",
		Description: "News related to accidents and incidents that cause damage to essential infrastructure, such as power grids, communication networks, roads, and water supply systems, and their resulting impact on services and communities",
	},
	{
		Name:        "incidents/roads",
		Description: "News related to accidents, collisions, and other road incidents involving injuries, fatalities, or traffic disruptions, highlighting events on highways, streets, and other public thoroughfares.",
	},
	{
		Name:        "education",
		Description: "News related to educational policies, initiatives, student achievements, and other developments in the education sector",
	},
	{
		Name:        "education/awards",
		Description: "News related to scholarships, grants, awards, and other forms of recognition within the education sector, covering student achievements and opportunities",
	},
	{
		Name:        "technology/internet_services",
		Description: "News related to the functioning, outages, and security of internet-based services and platforms",
	},
	{
		Name:        "environment/parks",
		Description: "News related to the establishment, maintenance, and conservation of parks and protected natural areas, including related policies and community involvement",
	},
}
